package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name      string
		status    int
		body      string
		wantLabel string
	}{
		{
			name:   "clean page",
			status: 200,
			body:   "<html><title>红楼梦 (豆瓣)</title></html>",
		},
		{
			name:   "plain error page passes through",
			status: 404,
			body:   "<html>页面不存在</html>",
		},
		{
			name:      "forbidden status",
			status:    403,
			body:      "",
			wantLabel: "forbidden",
		},
		{
			name:      "verification title",
			status:    200,
			body:      "<html><title>异常请求</title></html>",
			wantLabel: "verification_required",
		},
		{
			name:      "captcha marker is case-insensitive",
			status:    200,
			body:      "please solve this CAPTCHA to continue",
			wantLabel: "verification_required",
		},
		{
			name:      "challenge redirect target",
			status:    200,
			body:      `<a href="https://sec.douban.com/b?r=x">继续</a>`,
			wantLabel: "verification_required",
		},
		{
			name:      "robot check",
			status:    200,
			body:      "Robot Check",
			wantLabel: "verification_required",
		},
		{
			name:      "blocked english",
			status:    200,
			body:      "Too Many Requests",
			wantLabel: "blocked",
		},
		{
			name:      "blocked regional",
			status:    200,
			body:      "你的请求过于频繁，请稍后再试",
			wantLabel: "blocked",
		},
		{
			name:      "forbidden takes priority over body markers",
			status:    403,
			body:      "请求过于频繁",
			wantLabel: "forbidden",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify(tc.status, tc.body)
			if tc.wantLabel == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, tc.wantLabel, errorTypeLabel(err))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	require.True(t, IsTerminal(ForbiddenError{Err: errors.New("status 403")}))
	require.True(t, IsTerminal(VerificationRequiredError{Err: errors.New("challenge")}))
	require.False(t, IsTerminal(BlockedError{Err: errors.New("rate limited")}))
	require.False(t, IsTerminal(NetworkError{Err: errors.New("timeout")}))
	require.False(t, IsTerminal(errors.New("anything else")))
	require.False(t, IsTerminal(nil))
}

func TestIsTerminalSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("sync user alice: %w", ForbiddenError{Err: errors.New("status 403")})
	require.True(t, IsTerminal(err))
}

func TestErrorsUnwrapToCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NetworkError{Err: cause}
	require.ErrorIs(t, err, cause)
}
