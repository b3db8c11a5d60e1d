package config

import (
	"flag"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"io/ioutil"
	"os"
	"path"
)

const ConfigFolder = ".gocpuminer"

var configPath string

func init() {
	configFolder := getOrCreateConfigFolder()
	defaultConfigPath := path.Join(configFolder, "config.yaml")
	flag.StringVar(&configPath, "config", defaultConfigPath, "specify config file")
}

func getOrCreateConfigFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Println("could not find home folder")
		return ""
	}
	configFolder := path.Join(home, ConfigFolder)
	if err := os.MkdirAll(configFolder, 0700); err != nil {
		log.Println("Could not create", configFolder)
		return ""
	}
	return configFolder
}

func LoadConfig() (*Config, error) {
	return Load(configPath)
}

// Load reads a config file and fills in defaults. A missing file yields the
// default config.
func Load(filePath string) (*Config, error) {
	c := &Config{}
	var data []byte
	var err error
	log.WithField("path", filePath).Info("Loading config")
	if data, err = ioutil.ReadFile(filePath); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.WithField("path", filePath).Warn("Config not found, using defaults")
	} else if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.ApplyDefaults(path.Dir(filePath))
	return c, nil
}
