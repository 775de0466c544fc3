//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/easyride/service-booking/internal/application"
	bookingDomain "github.com/easyride/service-booking/internal/domain/booking"
	"github.com/easyride/service-booking/internal/domain/cancellation"
	"github.com/easyride/service-booking/internal/domain/refund"
	bookingEvents "github.com/easyride/service-booking/internal/events"
	"github.com/easyride/service-booking/internal/platform/database"
	"github.com/easyride/service-booking/internal/platform/kafka"
	"github.com/easyride/service-booking/internal/repository"
)

// setupPostgres starts a PostgreSQL container, applies the SQL migrations and
// returns a connected GORM DB.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	port, err := strconv.Atoi(pgPort.Port())
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     port,
		User:     "test",
		Password: "test",
		DBName:   "test_booking",
		SSLMode:  "disable",
	}
	log := zap.NewNop()

	// Poll until the server actually accepts connections.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, log)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), "migrations", log))
	return db
}

// setupKafka starts a Kafka container and pre-creates the service topics.
func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	// confluent-local runs KRaft without ZooKeeper.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, "booking.events", "payment.events")
	return brokers
}

type nopPublisher struct{}

func (nopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

// bookingStack holds wired-up service components over a real database.
type bookingStack struct {
	Bookings *application.BookingService
	Reviews  *application.ReviewService
	Vehicles *application.VehicleService
	Inbox    *application.NotificationService
}

func setupBookingStack(t *testing.T, db *gorm.DB, publisher application.EventPublisher) *bookingStack {
	t.Helper()
	log := zap.NewNop()

	tx := database.NewTransactor(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	inbox := application.NewNotificationService(repository.NewGormNotificationRepository(db), log)

	return &bookingStack{
		Bookings: application.NewBookingService(
			tx,
			bookingRepo,
			vehicleRepo,
			repository.NewGormCancellationRepository(db),
			bookingDomain.NewDailyRatePricingStrategy(),
			refund.NewStandardPolicy(),
			inbox,
			publisher,
			log,
		),
		Reviews:  application.NewReviewService(tx, repository.NewGormReviewRepository(db), bookingRepo, vehicleRepo, log),
		Vehicles: application.NewVehicleService(vehicleRepo, log),
		Inbox:    inbox,
	}
}

func newPaymentConsumer(brokers []string, svc bookingEvents.RefundCompleter) *bookingEvents.PaymentEventConsumer {
	groupID := fmt.Sprintf("test-booking-%s", uuid.New().String()[:8])
	return bookingEvents.NewPaymentEventConsumer(brokers, groupID, svc, zap.NewNop())
}

func seedVehicle(t *testing.T, stack *bookingStack, pricePerDayCents int64) uuid.UUID {
	t.Helper()
	v, err := stack.Vehicles.CreateVehicle(context.Background(), application.CreateVehicleRequest{
		Name:             "Aqua",
		Brand:            "Toyota",
		VehicleType:      "car",
		Model:            "Aqua",
		Year:             2021,
		LicensePlate:     "CBA-" + uuid.New().String()[:4],
		PricePerDayCents: pricePerDayCents,
	})
	require.NoError(t, err)
	return v.ID
}

func bookVehicle(ctx context.Context, stack *bookingStack, userID, vehicleID uuid.UUID, days int) (*application.BookingDTO, error) {
	pickUp := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	return stack.Bookings.CreateBooking(ctx, userID, application.CreateBookingRequest{
		VehicleID:   vehicleID,
		Name:        "Integration Renter",
		PickUpDate:  pickUp,
		ReturnDate:  pickUp.Add(time.Duration(days) * 24 * time.Hour),
		PhoneNumber: "0770000000",
	})
}

func cancellationBank() cancellation.BankDetails {
	return cancellation.BankDetails{
		BankName:      "Commercial Bank",
		AccountNumber: "8001234567",
		AccountHolder: "Integration Renter",
		IFSCCode:      "CCEYLKLX",
	}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType, key string, data interface{}) {
	t.Helper()
	producer := kafka.NewProducer(brokers, zap.NewNop())
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")
	ce.Subject = key

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForRefundStatus polls the bookings table until the refund status matches.
func waitForRefundStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expected string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.RefundStatus == expected {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking refund did not transition to %s", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
