package kafka

import (
	"Courier/internal/api/config"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
)

func TestNewSaramaConfig(t *testing.T) {
	t.Run("should keep sarama defaults for unset timeouts", func(t *testing.T) {
		req := require.New(t)
		defaults := sarama.NewConfig()

		c := newSaramaConfig(config.KafkaConfig{})

		req.NoError(c.Validate())
		req.Equal(clientID, c.ClientID)
		req.False(c.Net.SASL.Enable)
		req.False(c.Consumer.Offsets.AutoCommit.Enable)
		req.Equal(sarama.OffsetNewest, c.Consumer.Offsets.Initial)
		req.Equal(defaults.Consumer.Group.Session.Timeout, c.Consumer.Group.Session.Timeout)
	})

	t.Run("should apply configured sasl and timeouts", func(t *testing.T) {
		req := require.New(t)

		c := newSaramaConfig(config.KafkaConfig{
			Sasl:     config.SaslConfig{Enable: true, Username: "courier", Password: "secret"},
			Consumer: config.ConsumerConfig{SessionTimeout: 30, HeartbeatInterval: 3, RebalanceTimeout: 60, MaxProcessingTime: 5},
		})

		req.NoError(c.Validate())
		req.True(c.Net.SASL.Enable)
		req.Equal("courier", c.Net.SASL.User)
		req.Equal(30*time.Second, c.Consumer.Group.Session.Timeout)
		req.Equal(3*time.Second, c.Consumer.Group.Heartbeat.Interval)
		req.Equal(5*time.Second, c.Consumer.MaxProcessingTime)
	})
}
