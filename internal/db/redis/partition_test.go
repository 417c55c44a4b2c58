package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/gplcatalog/internal/db"
)

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, "gc:")
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, "gc:")
	err := s.Ping(context.Background())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestLoadPartition_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "gc:{themes}")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"1": mock.RedisString(`{"productID":1}`),
			"2": mock.RedisString(`{"productID":2}`),
		})))

	s := NewStoreForTest(c, "gc:")
	entries, err := s.LoadPartition(context.Background(), "themes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || string(entries["2"]) != `{"productID":2}` {
		t.Errorf("entries = %v", entries)
	}
}

func TestLoadPartition_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "gc:{all}")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, "gc:")
	_, err := s.LoadPartition(context.Background(), "all")
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestReplacePartition_StagesAndRenames(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmds ...rueidis.Completed) []rueidis.RedisResult {
			if len(cmds) != 3 {
				t.Fatalf("commands = %d, want 3", len(cmds))
			}
			del := cmds[0].Commands()
			hset := cmds[1].Commands()
			rename := cmds[2].Commands()
			if del[0] != "DEL" || del[1] != "gc:{plugins}:staging" {
				t.Errorf("first command = %v", del)
			}
			if hset[0] != "HSET" || hset[1] != "gc:{plugins}:staging" || len(hset) != 4 {
				t.Errorf("second command = %v", hset)
			}
			if rename[0] != "RENAME" || rename[1] != "gc:{plugins}:staging" || rename[2] != "gc:{plugins}" {
				t.Errorf("third command = %v", rename)
			}
			return []rueidis.RedisResult{
				mock.Result(mock.RedisInt64(0)),
				mock.Result(mock.RedisInt64(1)),
				mock.Result(mock.RedisString("OK")),
			}
		})

	s := NewStoreForTest(c, "gc:")
	err := s.ReplacePartition(context.Background(), "plugins", map[string][]byte{
		"7": []byte(`{"productID":7}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReplacePartition_RenameFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(0)),
			mock.Result(mock.RedisInt64(1)),
			mock.ErrorResult(errors.New("boom")),
		})

	s := NewStoreForTest(c, "gc:")
	err := s.ReplacePartition(context.Background(), "plugins", map[string][]byte{"7": []byte(`{}`)})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpRename {
		t.Fatalf("expected RENAME db.Error, got %v", err)
	}
}

func TestReplacePartition_EmptyDeletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "gc:{themes}")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c, "gc:")
	if err := s.ReplacePartition(context.Background(), "themes", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPutEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HSET", "gc:{all}", "3", `{"productID":3}`)).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c, "gc:")
	if err := s.PutEntry(context.Background(), "all", "3", []byte(`{"productID":3}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("connection refused"))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c, "gc:")
	if err := s.WaitForReady(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
