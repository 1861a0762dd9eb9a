package mongo

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

// BankItem is the stored form of a pre-authored interview item.
type BankItem struct {
	Title          string            `bson:"title" json:"title"`
	Kind           models.RoundKind  `bson:"kind" json:"kind"`
	Difficulty     string            `bson:"difficulty" json:"difficulty"`
	Category       string            `bson:"category,omitempty" json:"category,omitempty"`
	Roles          []string          `bson:"roles,omitempty" json:"roles,omitempty"`
	PromptMarkdown string            `bson:"prompt_markdown" json:"prompt_markdown"`
	TestCases      []models.TestCase `bson:"test_cases,omitempty" json:"test_cases,omitempty"`
	Status         string            `bson:"status" json:"status"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updated_at"`
}

// Bank wraps the MongoDB item collection and serves pre-authored item
// sequences by round kind and difficulty.
type Bank struct{ col *mongo.Collection }

// NewBank connects to Mongo and ensures an index on (kind, difficulty)
func NewBank(c *Client) (*Bank, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	colName := os.Getenv("ITEM_BANK_COLLECTION")
	if colName == "" {
		colName = "items"
	}

	col := db.Collection(colName)
	b := &Bank{col: col}

	_, _ = b.col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "kind", Value: 1}, {Key: "difficulty", Value: 1}},
	})

	return b, nil
}

// Generate implements questions.Generator by sampling active bank items.
func (b *Bank) Generate(ctx context.Context, role, difficulty string, kind models.RoundKind, count int) ([]models.Item, error) {
	filter := bson.M{
		"kind":       kind,
		"difficulty": difficulty,
		"status":     "active",
	}

	// $sample gives a different sequence per session from the same bank.
	cur, err := b.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sample", Value: bson.M{"size": count}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var stored []BankItem
	if err := cur.All(ctx, &stored); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(stored))
	for _, s := range stored {
		item := models.Item{
			Prompt:     s.PromptMarkdown,
			Category:   s.Category,
			Difficulty: s.Difficulty,
		}
		if kind == models.RoundCoding {
			if len(s.TestCases) == 0 {
				continue
			}
			encoded, err := json.Marshal(s.TestCases)
			if err != nil {
				return nil, err
			}
			item.TestCases = string(encoded)
		}
		items = append(items, item)
	}
	return items, nil
}

// Seed inserts an item; used by ops tooling, not by the request path.
func (b *Bank) Seed(ctx context.Context, item *BankItem) error {
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.Status == "" {
		item.Status = "active"
	}
	_, err := b.col.InsertOne(ctx, item)
	return err
}

// Count reports how many active items exist for a kind/difficulty pair.
func (b *Bank) Count(ctx context.Context, kind models.RoundKind, difficulty string) (int64, error) {
	opts := options.Count()
	return b.col.CountDocuments(ctx, bson.M{"kind": kind, "difficulty": difficulty, "status": "active"}, opts)
}
