package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/user"
)

func newTestLogger(debug bool) (*RollbarLogger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	conf := new(core.Config)
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = debug
	return NewRollbarLogger(log.New(buf, "", 0), conf), buf
}

func TestRollbarLogger_print(t *testing.T) {
	logger, buf := newTestLogger(false)
	assert.False(t, logger.enabled)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Error("saving maintenance", errors.New("disk full"))
	// %+v includes the stack of pkg/errors values
	assert.True(t, strings.HasPrefix(buf.String(), "ERROR: saving maintenance\ndisk full\n"))

	dbg, dbgBuf := newTestLogger(true)
	dbg.Debug("scan decoded", "AST-001")
	assert.Equal(t, "DEBUG: scan decoded\nAST-001\n", dbgBuf.String())
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger, _ := newTestLogger(false)
	usr := user.User{ID: "1", Username: "budi", Email: "budi@topsell.co.id"}
	other := &user.User{ID: "2"}
	extra := map[string]interface{}{"code": "AST-001"}

	args := logger.prepare("msg", []interface{}{usr, extra, other})
	assert.Equal(t, []interface{}{"msg", extra}, args)

	args = logger.prepare("msg", []interface{}{(*user.User)(nil)})
	assert.Equal(t, []interface{}{"msg"}, args)
}
