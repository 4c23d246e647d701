package config

import "os"

type TextractConfig struct {
	Region        string  `yaml:"region"`
	Endpoint      string  `yaml:"endpoint"`
	AccessKey     string  `yaml:"access_key"`
	SecretKey     string  `yaml:"secret_key"`
	MinConfidence float32 `yaml:"min_confidence"`
}

func (c *TextractConfig) applyEnv() {
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("AWS_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY"); v != "" {
		c.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_KEY"); v != "" {
		c.SecretKey = v
	}
}
