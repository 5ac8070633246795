package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"jepet/config"
	appointmentsRepo "jepet/database/repository/appointments"
	ordersRepo "jepet/database/repository/orders"
	profileRepo "jepet/database/repository/profile"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient is the global MongoDB client instance, nil unless DOCUMENT_STORE=mongo.
var MongoClient *mongo.Client

// Stores groups the document store repositories used by the session stores.
type Stores struct {
	Profiles     profileRepo.ProfileRepository
	Orders       ordersRepo.OrderRepository
	Appointments appointmentsRepo.AppointmentRepository

	closers []func(context.Context) error
}

// Close releases the underlying clients.
func (s *Stores) Close(ctx context.Context) error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// InitDB initializes the MongoDB connection.
func InitDB(ctx context.Context) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	MongoClient = client
	log.Println("Connected to MongoDB successfully!")
	return client, nil
}

// Open builds the repositories selected by DOCUMENT_STORE. app is only
// needed for the Firestore backend.
func Open(ctx context.Context, app *firebase.App) (*Stores, error) {
	switch config.AppConfig.DocumentStore {
	case "memory":
		return &Stores{
			Profiles:     profileRepo.NewMemoryProfileRepo(),
			Orders:       ordersRepo.NewMemoryOrderRepo(),
			Appointments: appointmentsRepo.NewMemoryAppointmentRepo(),
		}, nil

	case "mongo":
		client, err := InitDB(ctx)
		if err != nil {
			return nil, err
		}
		db := client.Database(config.AppConfig.DatabaseName)
		return &Stores{
			Profiles:     profileRepo.NewMongoProfileRepo(db),
			Orders:       ordersRepo.NewMongoOrderRepo(db),
			Appointments: appointmentsRepo.NewMongoAppointmentRepo(db),
			closers:      []func(context.Context) error{client.Disconnect},
		}, nil

	case "firestore", "":
		if app == nil {
			return nil, fmt.Errorf("firestore document store requires a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open firestore: %w", err)
		}
		return firestoreStores(client), nil

	default:
		return nil, fmt.Errorf("unknown DOCUMENT_STORE %q", config.AppConfig.DocumentStore)
	}
}

func firestoreStores(client *firestore.Client) *Stores {
	return &Stores{
		Profiles:     profileRepo.NewFirestoreProfileRepo(client),
		Orders:       ordersRepo.NewFirestoreOrderRepo(client),
		Appointments: appointmentsRepo.NewFirestoreAppointmentRepo(client),
		closers: []func(context.Context) error{
			func(context.Context) error { return client.Close() },
		},
	}
}
