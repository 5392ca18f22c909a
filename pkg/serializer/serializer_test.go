package serializer_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-lending/pkg/serializer"
)

type payload struct {
	BookID string `json:"bookId"`
	Days   *int   `json:"loanDays,omitempty"`
}

func TestJSONSerializer(t *testing.T) {
	e := echo.New()
	e.JSONSerializer = serializer.JSONSerializer{}
	e.POST("/echo", func(c echo.Context) error {
		var p payload
		if err := c.Bind(&p); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, p)
	})

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{name: "ok", body: `{"bookId":"b-1","loanDays":3}`, wantCode: http.StatusOK, wantBody: `{"bookId":"b-1","loanDays":3}`},
		{name: "omit empty", body: `{"bookId":"b-1"}`, wantCode: http.StatusOK, wantBody: `{"bookId":"b-1"}`},
		{name: "broken", body: `{"bookId":`, wantCode: http.StatusBadRequest, wantBody: `{"message":"invalid json body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.wantCode, w.Code)
			require.Equal(t, tt.wantBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
