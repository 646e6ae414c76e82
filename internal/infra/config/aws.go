package config

// AWSConfig represents the AWS configuration shared by the SSM, S3 and KMS backends.
type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}
