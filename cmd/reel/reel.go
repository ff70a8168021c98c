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

package main

import (
	"fmt"
	"os"

	"github.com/defsub/reel/config"
	g "github.com/defsub/reel/lib/gorm"
	"github.com/defsub/reel/lib/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "reel",
	Short: "Reel is a movie streaming site",
	Long:  `https://github.com/defsub/reel`,
}

var configFile string
var configPath string
var configName string

func getConfig() (*config.Config, error) {
	if configPath == "" {
		configPath = os.Getenv("REEL_HOME")
	}
	if configName == "" {
		configName = os.Getenv("REEL_CONFIG")
	}
	if configFile != "" {
		config.SetConfigFile(configFile)
	} else {
		if configPath == "" {
			configPath = "."
		}
		if configName == "" {
			configName = "reel"
		}
		config.AddConfigPath(configPath)
		config.SetConfigName(configName)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	log.Setup(cfg)
	return cfg, nil
}

// openDB returns the config and an open database. Callers close it with
// g.Close.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := g.Open(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
