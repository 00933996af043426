package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parleyhq/parley/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// note is the document shape written by SaveNoteTool.
type note struct {
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

// SaveNoteTool stores a short note in MongoDB. Registered only when a
// connection string is configured; the agent never sees it otherwise.
type SaveNoteTool struct {
	Coll *mongo.Collection
}

type saveNoteArgs struct {
	Text string `json:"text" jsonschema:"description=The note text to store"`
}

func (t *SaveNoteTool) Name() string { return "save_note" }

func (t *SaveNoteTool) Description() string {
	return "Stores a short text note for later retrieval. Args: text (string)."
}

func (t *SaveNoteTool) Parameters() map[string]interface{} {
	return schemaFor(&saveNoteArgs{})
}

func (t *SaveNoteTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	text, err := stringArg(args, "text")
	if err != nil {
		return "", err
	}
	_, err = t.Coll.InsertOne(ctx, note{Text: text, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", errors.Wrapf(err, "failed to save note")
	}
	return "Note saved.", nil
}

// ListNotesTool returns the most recent stored notes, newest first.
type ListNotesTool struct {
	Coll *mongo.Collection
}

type listNotesArgs struct{}

func (t *ListNotesTool) Name() string { return "list_notes" }

func (t *ListNotesTool) Description() string {
	return "Lists previously stored notes, newest first. Takes no arguments."
}

func (t *ListNotesTool) Parameters() map[string]interface{} {
	return schemaFor(&listNotesArgs{})
}

func (t *ListNotesTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(20)
	cursor, err := t.Coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return "", errors.Wrapf(err, "failed to list notes")
	}
	defer cursor.Close(ctx)

	var notes []note
	if err := cursor.All(ctx, &notes); err != nil {
		return "", errors.Wrapf(err, "failed to decode notes")
	}
	if len(notes) == 0 {
		return "No notes stored.", nil
	}

	var b strings.Builder
	for i, n := range notes {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, n.Text, n.CreatedAt.Format(time.RFC3339))
	}
	return b.String(), nil
}
