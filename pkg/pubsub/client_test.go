package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handcar/handcar-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/handcar-notifications", topicResourceName("p1", "handcar-notifications"))
	assert.Equal(t, "projects/p1/subscriptions/worker", subscriptionResourceName("p1", " worker "))
	assert.Equal(t, "projects/other/topics/t", topicResourceName("p1", "projects/other/topics/t"))
	assert.Empty(t, topicResourceName("", "t"))
	assert.Empty(t, subscriptionResourceName("p1", ""))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.PubSubConfig{}, RolePublisher, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("t"))
	assert.Nil(t, c.NotificationsSubscription())
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
