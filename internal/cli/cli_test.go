package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		env        map[string]string
		wantExit   bool
		wantCode   int
		wantErr    string
		wantPath   string
		wantFormat string
		check      func(t *testing.T, workers int, timeout time.Duration, port int)
	}{
		{name: "positional path", args: []string{"deploy"}, wantPath: "deploy", wantFormat: "json"},
		{name: "long flag wins", args: []string{"-deployment", "a", "-d", "b", "c"}, wantPath: "a", wantFormat: "json"},
		{name: "short flag", args: []string{"-d", "b", "c"}, wantPath: "b", wantFormat: "json"},
		{
			name:       "all options",
			args:       []string{"-log-format", "TEXT", "-log-level", "debug", "-workers", "8", "-handler-timeout", "250ms", "-http-port", "8080", "deploy"},
			wantPath:   "deploy",
			wantFormat: "text",
			check: func(t *testing.T, workers int, timeout time.Duration, port int) {
				assert.Equal(t, 8, workers)
				assert.Equal(t, 250*time.Millisecond, timeout)
				assert.Equal(t, 8080, port)
			},
		},
		{
			name:       "environment defaults",
			args:       []string{},
			env:        map[string]string{"REACTGRID_DEPLOYMENT": "/srv/deploy", "REACTGRID_WORKERS": "3", "REACTGRID_LOG_FORMAT": "text"},
			wantPath:   "/srv/deploy",
			wantFormat: "text",
			check: func(t *testing.T, workers int, _ time.Duration, _ int) {
				assert.Equal(t, 3, workers)
			},
		},
		{
			name:       "flags override environment",
			args:       []string{"-workers", "5", "x"},
			env:        map[string]string{"REACTGRID_WORKERS": "3"},
			wantPath:   "x",
			wantFormat: "json",
			check: func(t *testing.T, workers int, _ time.Duration, _ int) {
				assert.Equal(t, 5, workers)
			},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no path", args: []string{}, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: 2, wantErr: "flag provided but not defined"},
		{name: "bad format", args: []string{"-log-format", "xml", "x"}, wantCode: 2, wantErr: "invalid log-format"},
		{name: "bad workers", args: []string{"-workers", "0", "x"}, wantCode: 2, wantErr: "workers must be at least 1"},
		{name: "bad env", args: []string{"x"}, env: map[string]string{"REACTGRID_HTTP_PORT": "port"}, wantCode: 2, wantErr: "parse env"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			out := &bytes.Buffer{}

			cfg, exit, err := Parse(tc.args, out)

			if tc.wantErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Nil(t, cfg)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			require.NotNil(t, cfg)
			assert.Equal(t, tc.wantPath, cfg.DeploymentPath)
			assert.Equal(t, tc.wantFormat, cfg.LogFormat)
			if tc.check != nil {
				tc.check(t, cfg.WorkerCount, cfg.HandlerTimeout, cfg.HTTPPort)
			}
		})
	}
}
