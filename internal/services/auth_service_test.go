package services

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setArgon2Defaults() {
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
}

func TestPasswordHashing(t *testing.T) {
	setArgon2Defaults()
	salt := []byte("0123456789abcdef")

	t.Run("round trip", func(t *testing.T) {
		encoded := HashPassword("correct horse battery", salt)
		assert.True(t, VerifyPassword("correct horse battery", encoded))
	})

	t.Run("wrong password", func(t *testing.T) {
		encoded := HashPassword("correct horse battery", salt)
		assert.False(t, VerifyPassword("correct horse staple", encoded))
	})

	t.Run("malformed encoded value", func(t *testing.T) {
		assert.False(t, VerifyPassword("anything", "not-a-hash"))
		assert.False(t, VerifyPassword("anything", "!!$!!"))
		assert.False(t, VerifyPassword("anything", ""))
	})
}
