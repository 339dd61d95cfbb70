package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/belacosmetics/storefront-backend/pkg/logger"
)

type recordingCloser struct {
	name  string
	order *[]string
	err   error
}

func (r recordingCloser) Close() error {
	*r.order = append(*r.order, r.name)
	return r.err
}

func TestCloseRunsInReverseOrderAndLogsFailures(t *testing.T) {
	var out bytes.Buffer
	var order []string
	p := &Process{Name: "test", Logger: logger.New(logger.Options{ServiceName: "test", Output: &out})}
	p.Defer("database", recordingCloser{name: "database", order: &order})
	p.Defer("redis", recordingCloser{name: "redis", order: &order, err: errors.New("conn reset")})
	p.Defer("nil", nil)

	p.Close()
	p.Close()

	assert.Equal(t, []string{"redis", "database"}, order)
	assert.Contains(t, out.String(), `"resource":"redis"`)
	assert.Contains(t, out.String(), "conn reset")
}

func TestFatalClosesThenExits(t *testing.T) {
	var order []string
	code := -1
	p := &Process{
		Name:   "test",
		Logger: logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		exit:   func(c int) { code = c },
	}
	p.Defer("pubsub", recordingCloser{name: "pubsub", order: &order})

	p.Fatal(context.Background(), "boom", errors.New("bad"))

	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"pubsub"}, order)
}

func TestSignalContextWithoutConfig(t *testing.T) {
	p := &Process{Name: "test", Logger: logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})}
	ctx, stop := p.SignalContext()
	defer stop()

	assert.NoError(t, ctx.Err())
}
