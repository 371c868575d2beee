package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithStageKeepsFirstStage(t *testing.T) {
	e := NotFound("goal x not found").WithStage("resolve_goal")
	again := e.WithStage("create_event")

	assert.Equal(t, "resolve_goal", again.Stage)
	assert.Equal(t, "not_found [resolve_goal]: goal x not found", again.Error())
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := errors.New("socket closed")
	err := fmt.Errorf("outer: %w", Upstream("calendar down", base))

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindInternal, KindOf(base))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(KindUnauthorized))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(KindValidation))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(KindUpstream))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindNoOutput))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindInternal))
}
