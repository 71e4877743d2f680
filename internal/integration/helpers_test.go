//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("aqi-etl-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

// testBundles returns two station bundles with hand-checked scores:
//
//	fresno      2024-01-01  pm25 12.0 -> 50, co 4.4 (last of day) -> 50  AQI 50 "pm25,co"
//	fresno      2024-01-02  pm25 35.4 -> 100                           AQI 100 "pm25"
//	bakersfield 2024-01-01  pm10 54 -> 50                              AQI 50 "pm10"
func testBundles() []domain.StationBundle {
	return []domain.StationBundle{
		{
			StationID: "72389093193",
			Station:   "fresno",
			Weather: []domain.WeatherRow{
				{Date: "2024-01-01", Values: map[string]*float64{"TEMP": domain.Float(48.1), "PRCP": domain.Float(99.99)}},
				{Date: "2024-01-02", Values: map[string]*float64{"TEMP": domain.Float(9999.9), "PRCP": domain.Float(0.1)}},
			},
			Daily: map[string][]domain.DailyAverage{
				"pm25": {
					{Day: "2024-01-01", Average: domain.Float(12.0)},
					{Day: "2024-01-02", Average: domain.Float(35.4)},
				},
			},
			Hourly: map[string][]domain.HourlyReading{
				"co": {
					{Datetime: day(1).Add(5 * time.Hour), Value: domain.Float(9.0)},
					{Datetime: day(1).Add(23 * time.Hour), Value: domain.Float(4.4)},
				},
			},
		},
		{
			StationID: "72384023155",
			Station:   "bakersfield",
			Daily: map[string][]domain.DailyAverage{
				"pm10": {{Day: "2024-01-01", Average: domain.Float(54)}},
			},
		},
	}
}
