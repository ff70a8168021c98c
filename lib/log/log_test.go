// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/defsub/reel/config"
	"github.com/sirupsen/logrus"
)

func testLogger(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	saved := logger
	logger = l
	t.Cleanup(func() {
		logger = saved
	})
	return &buf
}

func TestTrailingNewline(t *testing.T) {
	buf := testLogger(t)
	Printf("assigned %d url keys\n", 1)
	Warnf("url key %s taken\n", "abc123")
	Debugf("access token: %s", "expired")
	out := buf.String()
	for _, want := range []string{
		`msg="assigned 1 url keys"`,
		`msg="url key abc123 taken"`,
		`msg="access token: expired"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %q\n", want, out)
		}
	}
	if strings.Contains(out, `\n"`) {
		t.Errorf("newline inside message %q\n", out)
	}
}

func TestWith(t *testing.T) {
	buf := testLogger(t)
	With(map[string]interface{}{"route": "/movie/:key", "status": 301}).Info("request")
	out := buf.String()
	if !strings.Contains(out, "route=\"/movie/:key\"") || !strings.Contains(out, "status=301") {
		t.Errorf("missing fields in %q\n", out)
	}
}

func TestSetup(t *testing.T) {
	saved := logger
	defer func() {
		logger = saved
	}()
	cfg, err := config.TestConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	Setup(cfg)
	l, ok := logger.(*logrus.Logger)
	if !ok {
		t.Fatalf("unexpected logger %T\n", logger)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug got %s\n", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected json formatter got %T\n", l.Formatter)
	}

	cfg.Log.Level = "nonsense"
	cfg.Log.Format = "text"
	Setup(cfg)
	if logger.(*logrus.Logger).GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info for unknown level\n")
	}
}
