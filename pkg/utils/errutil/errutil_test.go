package errutil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	gt.NoError(t, errutil.Handle(context.Background(), nil, "nothing"))

	err := goerr.New("boom", goerr.V("key", "value"))
	gt.Value(t, errutil.Handle(context.Background(), err, "failed")).Equal(error(err))
}

func TestHandleHTTP(t *testing.T) {
	t.Run("client error keeps message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("bad input"), http.StatusBadRequest)

		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		var body map[string]string
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)).Required()
		gt.Value(t, body["error"]).Equal("bad input")
	})

	t.Run("server error hides details", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("db password leaked"), http.StatusInternalServerError)

		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		var body map[string]string
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)).Required()
		gt.Value(t, body["error"]).Equal(http.StatusText(http.StatusInternalServerError))
	})
}
