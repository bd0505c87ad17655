//go:build integration

package cases

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/credential-auth/internal/bootstrap"
	itinfra "github.com/baechuer/credential-auth/test/integration/infra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	itExchange   = "it.auth.events"
	itSigningKey = "integration-signing-key-integration-signing-key-0123456789abcdef"
)

// Deps is a running service wired against the compose stack.
type Deps struct {
	DB   *sql.DB
	AMQP *amqp.Connection
	Srv  *httptest.Server

	cleanup func()
}

func MustNewDeps(t *testing.T, env itinfra.Env, rateLimit bool) *Deps {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	require.NoError(t, itinfra.WaitPostgres(ctx, env.PostgresDSN))
	require.NoError(t, itinfra.WaitRedis(ctx, env.RedisAddr))
	require.NoError(t, itinfra.WaitRabbit(ctx, env.RabbitURL))

	t.Setenv("ENV", "test")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_ADDR", env.PostgresDSN)
	t.Setenv("DB_MIGRATE", "true")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("JWT_SIGNING_KEY", itSigningKey)
	t.Setenv("JWT_ISSUER", "credential-auth-it")
	t.Setenv("JWT_AUDIENCE", "credential-auth-it")
	t.Setenv("JWT_TOKEN_LIFETIME", "5m")
	t.Setenv("REDIS_ADDR", env.RedisAddr)
	t.Setenv("RABBIT_URL", env.RabbitURL)
	t.Setenv("RABBIT_EXCHANGE", itExchange)
	if rateLimit {
		t.Setenv("RATE_LIMIT_ENABLED", "true")
	} else {
		t.Setenv("RATE_LIMIT_ENABLED", "false")
	}

	srv, cleanup, err := bootstrap.NewServer()
	require.NoError(t, err)

	db, err := sql.Open("pgx", env.PostgresDSN)
	require.NoError(t, err)
	require.NoError(t, itinfra.ResetAll(ctx, db, env.RedisAddr))

	conn, err := amqp.Dial(env.RabbitURL)
	require.NoError(t, err)

	return &Deps{
		DB:      db,
		AMQP:    conn,
		Srv:     httptest.NewServer(srv.Handler),
		cleanup: cleanup,
	}
}

func (d *Deps) Close(t *testing.T) {
	t.Helper()
	if d.Srv != nil {
		d.Srv.Close()
	}
	if d.cleanup != nil {
		d.cleanup()
	}
	if d.AMQP != nil {
		_ = d.AMQP.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// PostJSON sends body to path and decodes the response into a generic map.
func (d *Deps) PostJSON(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := d.Srv.Client().Post(d.Srv.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (d *Deps) GetWithToken(t *testing.T, path, tok string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, d.Srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := d.Srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}
