// Command tokengen mints signed tokens for synthetic users, one per line.
// The output feeds load tests that hit authenticated routes.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/credential-auth/internal/config"
	"github.com/baechuer/credential-auth/internal/domain"
	"github.com/baechuer/credential-auth/internal/logger"
	"github.com/baechuer/credential-auth/internal/token"
)

type issuer interface {
	Issue(u *domain.User) (string, error)
}

func main() {
	n := flag.Int("n", 1000, "number of tokens to mint")
	out := flag.String("out", "", "output file (default stdout)")
	check := flag.String("check", "", "base URL; verify the first token against GET /api/auth/me")
	flag.Parse()

	logger.InitWithWriter(os.Stderr)
	os.Exit(run(*n, *out, *check, logger.Logger))
}

func run(n int, out, check string, log zerolog.Logger) int {
	cfg, err := config.LoadToken()
	if err != nil {
		log.Error().Err(err).Msg("load token config")
		return 1
	}
	codec, err := token.NewCodec(cfg)
	if err != nil {
		log.Error().Err(err).Msg("token codec")
		return 1
	}

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			log.Error().Err(err).Str("path", out).Msg("create output")
			return 1
		}
		defer f.Close()
		w = f
	}

	first, err := mint(codec, n, w)
	if err != nil {
		log.Error().Err(err).Msg("mint tokens")
		return 1
	}
	log.Info().Int("count", n).Str("out", out).Msg("tokens minted")

	if check != "" && first != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		status, err := checkToken(ctx, http.DefaultClient, check, first)
		if err != nil {
			log.Error().Err(err).Msg("check token")
			return 1
		}
		if status != http.StatusOK {
			log.Error().Int("status", status).Msg("token rejected")
			return 1
		}
		log.Info().Msg("token accepted")
	}
	return 0
}

// mint writes n tokens for fresh users and returns the first one.
func mint(iss issuer, n int, w io.Writer) (string, error) {
	bw := bufio.NewWriter(w)
	var first string
	for i := 0; i < n; i++ {
		u := &domain.User{
			ID:       uuid.NewString(),
			UserName: fmt.Sprintf("load-user-%d", i),
			Email:    fmt.Sprintf("load-user-%d@example.com", i),
		}
		s, err := iss.Issue(u)
		if err != nil {
			return "", fmt.Errorf("issue token %d: %w", i, err)
		}
		if i == 0 {
			first = s
		}
		if _, err := bw.WriteString(s + "\n"); err != nil {
			return "", err
		}
	}
	return first, bw.Flush()
}

func checkToken(ctx context.Context, client *http.Client, baseURL, tok string) (int, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/auth/me"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
