package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pauljones0/commodity-tracker/internal/logx"
)

func TestSensitiveDataMasker(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "password",
			in:   `{"email":"a@b.c","password":"hunter2"}`,
			want: `{"email":"a@b.c","password":"[MASKED]"}`,
		},
		{
			name: "tokens",
			in:   `{"access_token": "aaa.bbb.ccc","refresh_token":"rrr"}`,
			want: `{"access_token": "[MASKED]","refresh_token":"[MASKED]"}`,
		},
		{
			name: "headers",
			in:   "POST /auth/v1/token HTTP/1.1\r\nApikey: anon\r\nAuthorization: Bearer xyz\r\n",
			want: "POST /auth/v1/token HTTP/1.1\r\nApikey: [MASKED]\r\nAuthorization: Bearer [MASKED]\r\n",
		},
		{
			name: "api key setting",
			in:   `{"value":"sk-ant-123"}`,
			want: `{"value":"sk-[MASKED]"}`,
		},
	}

	masker := logx.NewSensitiveDataMasker()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, string(masker.Mask([]byte(tc.in))))
		})
	}
}
