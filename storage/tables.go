package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"kanban/domain"
)

const boardRowKey = "board"

// Tables stores boards in Azure Table Storage, one entity per key.
type Tables struct {
	table *aztables.Client
}

// NewTables creates a Tables backend from a storage connection string.
func NewTables(connStr, tableName string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{table: svc.NewClient(tableName)}, nil
}

type boardEntity struct {
	aztables.Entity
	Data string `json:"Data"`
}

func (t *Tables) Load(ctx context.Context, key string) (domain.Board, bool, error) {
	resp, err := t.table.GetEntity(ctx, key, boardRowKey, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return domain.Board{}, false, nil
		}
		return domain.Board{}, false, fmt.Errorf("get board entity %s: %w", key, err)
	}
	b, err := decodeBoardEntity(resp.Value)
	if err != nil {
		return domain.Board{}, false, err
	}
	return b, true, nil
}

func (t *Tables) Save(ctx context.Context, key string, b domain.Board) error {
	payload, err := encodeBoardEntity(key, b)
	if err != nil {
		return err
	}
	_, err = t.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		return fmt.Errorf("upsert board entity %s: %w", key, err)
	}
	return nil
}

func encodeBoardEntity(key string, b domain.Board) ([]byte, error) {
	data, err := domain.EncodeBoard(b)
	if err != nil {
		return nil, err
	}
	return sonic.Marshal(map[string]any{
		"PartitionKey": key,
		"RowKey":       boardRowKey,
		"Data":         string(data),
	})
}

func decodeBoardEntity(raw []byte) (domain.Board, error) {
	var ent boardEntity
	if err := sonic.Unmarshal(raw, &ent); err != nil {
		return domain.Board{}, fmt.Errorf("decode board entity: %w", err)
	}
	if ent.Data == "" {
		return domain.NewBoard(), nil
	}
	return domain.DecodeBoard([]byte(ent.Data))
}
