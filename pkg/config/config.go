/*
Copyright 2016 The GoStor Authors All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the name of config file
	ConfigFileName = "config.json"
	// EnvPrefix prefixes environment overrides, e.g. GOSG_DEVICE.
	EnvPrefix = "GOSG"

	DefaultHost           = "tcp://127.0.0.1:23458"
	DefaultSenseLength    = 0x12
	DefaultTimeoutSeconds = 28 * 60 * 60
	DefaultLogLevel       = "info"
)

var (
	configDir = os.Getenv("GOSG_CONFIG")
)

type Config struct {
	// Host is the PROTO://ADDR the daemon listens on and clients dial.
	Host string `json:"host" mapstructure:"host"`
	// Device is opened when a command names none.
	Device         string `json:"device" mapstructure:"device"`
	SenseLength    int    `json:"senseLength" mapstructure:"senseLength"`
	TimeoutSeconds int32  `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	LogLevel       string `json:"logLevel" mapstructure:"logLevel"`
}

func init() {
	if configDir == "" {
		if home, err := homedir.Dir(); err == nil {
			configDir = filepath.Join(home, ".gosg")
		}
	}
}

// ConfigDir returns the directory the configuration file is stored in
func ConfigDir() string {
	return configDir
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Host:           DefaultHost,
		SenseLength:    DefaultSenseLength,
		TimeoutSeconds: DefaultTimeoutSeconds,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads the configuration files in the given directory and return values.
// Environment variables prefixed with GOSG_ override the file.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = ConfigDir()
	}

	filename := filepath.Join(configDir, ConfigFileName)
	config := Default()

	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("host", config.Host)
	v.SetDefault("device", config.Device)
	v.SetDefault("senseLength", config.SenseLength)
	v.SetDefault("timeoutSeconds", config.TimeoutSeconds)
	v.SetDefault("logLevel", config.LogLevel)

	if _, err := os.Stat(filename); err != nil {
		// if file is there but we can't stat it for any reason other
		// than it doesn't exist then stop
		if !os.IsNotExist(err) {
			return config, fmt.Errorf("%s - %v", filename, err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		return config, fmt.Errorf("%s - %v", filename, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return config, fmt.Errorf("%s - %v", filename, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("%s - %v", filename, err)
	}
	return config, nil
}

// Validate checks the values a Session would otherwise treat as fatal.
func (config *Config) Validate() error {
	if config.SenseLength < 0 || config.SenseLength > 0xFF {
		return fmt.Errorf("bad parameter: senseLength %d is not in [0, 255]", config.SenseLength)
	}
	if config.TimeoutSeconds < 0 || config.TimeoutSeconds > (1<<31-1)/1000 {
		return fmt.Errorf("bad parameter: timeoutSeconds %d is out of range", config.TimeoutSeconds)
	}
	return nil
}

// Save writes the configuration as indented JSON.
func (config *Config) Save(filename string) error {
	if filename == "" {
		return fmt.Errorf("Can't save config with empty filename")
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.MarshalIndent(config, "", "\t")
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}
