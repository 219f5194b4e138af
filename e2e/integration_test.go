//go:build e2e

// Package e2e contains end-to-end integration tests against real DynamoDB
// tables. Point DYNAMO_ENDPOINT at a local DynamoDB to run them:
//
//	go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Moustapha2526/TinyIsnta/internal/feed"
	"github.com/Moustapha2526/TinyIsnta/internal/seed"
	"github.com/Moustapha2526/TinyIsnta/internal/social"
	"github.com/Moustapha2526/TinyIsnta/store"
)

const tablePrefix = "tinyinsta-e2e-test"

var (
	testID     string
	usersTable string
	postsTable string

	ddbClient *dynamodb.Client
	testStore *store.Dynamo
)

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	usersTable = fmt.Sprintf("%s-%s-users", tablePrefix, testID)
	postsTable = fmt.Sprintf("%s-%s-posts", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Tables:\n")
	fmt.Printf("  - Users: %s\n", usersTable)
	fmt.Printf("  - Posts: %s\n", postsTable)

	ctx := context.Background()
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := os.Getenv("DYNAMO_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	testStore = store.NewDynamo(ddbClient, store.Config{
		Tables: map[string]string{
			social.KindUser: usersTable,
			social.KindPost: postsTable,
		},
	})

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func createTables(ctx context.Context) error {
	fmt.Println("Creating test tables...")

	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(usersTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", usersTable, err)
	}

	// Posts table carries the author-created index that backs timeline reads.
	_, err = ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(postsTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("author"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("created"), AttributeType: types.ScalarAttributeTypeN},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String("author-created-index"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("author"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("created"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", postsTable, err)
	}

	for _, tableName := range []string{usersTable, postsTable} {
		waiter := dynamodb.NewTableExistsWaiter(ddbClient)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", tableName, err)
		}
	}

	fmt.Println("All tables created and active")
	return nil
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")

	for _, tableName := range []string{usersTable, postsTable} {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", tableName, err)
		}
	}

	fmt.Println("Tables deleted")
	return nil
}

// --- Tests ---

func TestSeedAndTimeline(t *testing.T) {
	ctx := context.Background()

	graph := social.NewGraph(testStore)
	posts := social.NewPosts(testStore)
	pipeline := seed.NewPipeline(testStore, graph, posts, zerolog.Nop())

	result, err := pipeline.Run(ctx, seed.Params{
		Users:            4,
		PostsPerUser:     5,
		FolloweesPerUser: 2,
		Prefix:           "e2e",
		Seed:             42,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if result.UsersCreated != 4 {
		t.Errorf("expected 4 users created, got %d", result.UsersCreated)
	}
	if result.PostsCreated != 20 {
		t.Errorf("expected 20 posts created, got %d", result.PostsCreated)
	}

	feedSvc := feed.NewService(graph, posts)
	timeline, err := feedSvc.GetTimeline(ctx, "e2e1", 10)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(timeline) != 10 {
		t.Fatalf("expected 10 posts in timeline, got %d", len(timeline))
	}
	for i := 1; i < len(timeline); i++ {
		if timeline[i].Created > timeline[i-1].Created {
			t.Errorf("timeline out of order at %d", i)
		}
	}

	// Seeding again without clean must not duplicate users.
	again, err := pipeline.Run(ctx, seed.Params{
		Users:            4,
		PostsPerUser:     0,
		FolloweesPerUser: 2,
		Prefix:           "e2e",
		Seed:             42,
	})
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if again.UsersCreated != 0 {
		t.Errorf("expected 0 users created on reseed, got %d", again.UsersCreated)
	}
}

func TestUnknownUserTimeline(t *testing.T) {
	ctx := context.Background()

	graph := social.NewGraph(testStore)
	posts := social.NewPosts(testStore)
	feedSvc := feed.NewService(graph, posts)

	_, err := feedSvc.GetTimeline(ctx, "nobody-"+testID, 10)
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestWipe(t *testing.T) {
	ctx := context.Background()

	graph := social.NewGraph(testStore)
	posts := social.NewPosts(testStore)
	pipeline := seed.NewPipeline(testStore, graph, posts, zerolog.Nop())

	if _, err := pipeline.Run(ctx, seed.Params{
		Users:        3,
		PostsPerUser: 2,
		Prefix:       "wipe",
		Seed:         7,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	users, wiped, err := pipeline.Wipe(ctx)
	if err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if users == 0 || wiped == 0 {
		t.Errorf("expected non-zero wipe counts, got users=%d posts=%d", users, wiped)
	}

	keys, _, err := testStore.Keys(ctx, social.KindUser, "", 10)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty users table after wipe, got %d keys", len(keys))
	}
}
