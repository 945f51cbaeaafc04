package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestTimeout(t *testing.T) {
	viper.Set("REQ_TIMEOUT", "")
	timeout := GetRequestTimeout()
	assert.Equal(t, timeout, defaultRequestTimeout)

	viper.Set("REQ_TIMEOUT", "14s")
	timeout = GetRequestTimeout()
	assert.Equal(t, timeout, 14*time.Second)

	viper.Set("REQ_TIMEOUT", "soon")
	assert.Equal(t, defaultRequestTimeout, GetRequestTimeout())
}

func TestPort(t *testing.T) {
	assert.Equal(t, ":5000", GetPort())

	viper.Set("PORT", "8077")
	defer viper.Set("PORT", "")
	assert.Equal(t, ":8077", GetPort())
}

func TestSizes(t *testing.T) {
	assert.Equal(t, int64(25<<20), GetMaxFileSize())

	viper.Set("MAX_FILE_SIZE_MB", "2")
	defer viper.Set("MAX_FILE_SIZE_MB", "")
	assert.Equal(t, int64(2<<20), GetMaxFileSize())
}

func TestS3RegionFallback(t *testing.T) {
	viper.Set("S3_REGION", "")
	viper.Set("AWS_REGION", "")
	assert.Equal(t, "us-east-1", GetS3Region())

	viper.Set("AWS_REGION", "eu-west-1")
	assert.Equal(t, "eu-west-1", GetS3Region())

	viper.Set("S3_REGION", "eu-central-1")
	assert.Equal(t, "eu-central-1", GetS3Region())
}

func TestCorsOrigins(t *testing.T) {
	viper.Set("CORS_ORIGINS", "*")
	assert.Nil(t, GetCorsOrigins())

	viper.Set("CORS_ORIGINS", "http://localhost:3000, https://app.example.com")
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, GetCorsOrigins())
}

func TestSeedUsers(t *testing.T) {
	viper.Set("SEED_USERS", "1=Owner, 9=Ada Approver,x=skip,")
	assert.Equal(t, map[int64]string{1: "Owner", 9: "Ada Approver"}, GetSeedUsers())
}
