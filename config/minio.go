package config

import "os"

type MinioConfig struct {
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"`
	UseSSL     bool   `yaml:"use_ssl"`
	Region     string `yaml:"region"`
	BucketName string `yaml:"bucket_name"`
}

func (c *MinioConfig) applyEnv() {
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v, ok := envBool("MINIO_USE_SSL"); ok {
		c.UseSSL = v
	}
	if v := os.Getenv("MINIO_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("MINIO_BUCKET_NAME"); v != "" {
		c.BucketName = v
	}
}
