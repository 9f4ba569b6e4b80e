package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		write    func(*gin.Context)
		wantHTTP int
		wantCode int
	}{
		{name: "success", write: func(c *gin.Context) { Success(c, gin.H{"a": 1}) }, wantHTTP: 200, wantCode: 0},
		{name: "created", write: func(c *gin.Context) { Created(c, nil) }, wantHTTP: 201, wantCode: 0},
		{name: "bad request", write: func(c *gin.Context) { BadRequest(c, "bad") }, wantHTTP: 400, wantCode: 400},
		{name: "unauthorized", write: func(c *gin.Context) { Unauthorized(c, "no") }, wantHTTP: 401, wantCode: 401},
		{name: "not found", write: func(c *gin.Context) { NotFound(c, "gone") }, wantHTTP: 404, wantCode: 404},
		{name: "rate limited", write: func(c *gin.Context) { TooManyRequests(c, "slow") }, wantHTTP: 429, wantCode: 429},
		{name: "internal", write: func(c *gin.Context) { InternalError(c, "oops") }, wantHTTP: 500, wantCode: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.write(c)
			if w.Code != tt.wantHTTP {
				t.Errorf("status = %d, want %d", w.Code, tt.wantHTTP)
			}
			var body Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", body.Code, tt.wantCode)
			}
			if tt.wantHTTP >= http.StatusBadRequest && !c.IsAborted() {
				t.Error("error response did not abort the chain")
			}
		})
	}
}
