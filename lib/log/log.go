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
	"os"
	"strings"

	"github.com/defsub/reel/config"
	"github.com/sirupsen/logrus"
)

type Logger interface {
	Fatalf(format string, v ...interface{})
	Fatalln(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
	Warnf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

var logger Logger = defaultLogger()

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	return l
}

// Setup configures the package logger from the Log section.
func Setup(cfg *config.Config) {
	l := defaultLogger()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	if strings.EqualFold(cfg.Log.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger = l
}

// With returns an entry carrying structured fields, such as a request route.
func With(fields map[string]interface{}) *logrus.Entry {
	if l, ok := logger.(*logrus.Logger); ok {
		return l.WithFields(fields)
	}
	return logrus.WithFields(fields)
}

func CheckError(err error) {
	if err != nil {
		logger.Fatalln(err)
	}
}

func Fatalf(format string, v ...interface{}) {
	logger.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

func Fatalln(v ...interface{}) {
	logger.Fatalln(v...)
}

func Printf(format string, v ...interface{}) {
	logger.Printf(strings.TrimSuffix(format, "\n"), v...)
}

func Println(v ...interface{}) {
	logger.Println(v...)
}

func Warnf(format string, v ...interface{}) {
	logger.Warnf(strings.TrimSuffix(format, "\n"), v...)
}

func Debugf(format string, v ...interface{}) {
	logger.Debugf(strings.TrimSuffix(format, "\n"), v...)
}
