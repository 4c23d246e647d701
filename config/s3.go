package config

import "os"

type S3Config struct {
	BucketName string `yaml:"bucket_name"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
}

func (c *S3Config) applyEnv() {
	if v := os.Getenv("AWS_S3_BUCKET_NAME"); v != "" {
		c.BucketName = v
	}
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
