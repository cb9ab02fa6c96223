package lock

import (
    "context"
    "testing"
    "time"

    "github.com/go-redis/redismock/v9"
    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRedisStore_Acquire(t *testing.T) {
    db, mock := redismock.NewClientMock()
    store := NewRedisStore(db)
    eventID := uuid.New()
    key := Key(eventID, "A1")
    holder := HolderValue(uuid.New())

    mock.ExpectSetNX(key, holder, 600*time.Second).SetVal(true)
    ok, err := store.Acquire(context.Background(), key, holder, 600*time.Second)
    require.NoError(t, err)
    assert.True(t, ok)

    // Second acquisition of the same key loses the race.
    mock.ExpectSetNX(key, holder, 600*time.Second).SetVal(false)
    ok, err = store.Acquire(context.Background(), key, holder, 600*time.Second)
    require.NoError(t, err)
    assert.False(t, ok)

    require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Exists(t *testing.T) {
    db, mock := redismock.NewClientMock()
    store := NewRedisStore(db)
    key := Key(uuid.New(), "B7")

    mock.ExpectExists(key).SetVal(1)
    locked, err := store.Exists(context.Background(), key)
    require.NoError(t, err)
    assert.True(t, locked)

    mock.ExpectExists(key).SetVal(0)
    locked, err = store.Exists(context.Background(), key)
    require.NoError(t, err)
    assert.False(t, locked)

    require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ReleaseIsOwnerChecked(t *testing.T) {
    db, mock := redismock.NewClientMock()
    store := NewRedisStore(db)
    key := Key(uuid.New(), "C3")
    holder := HolderValue(uuid.New())

    // Holder matches: the script deletes the key.
    mock.ExpectEval(releaseScript, []string{key}, holder).SetVal(int64(1))
    deleted, err := store.Release(context.Background(), key, holder)
    require.NoError(t, err)
    assert.True(t, deleted)

    // Holder differs (or key absent): the script leaves it alone.
    mock.ExpectEval(releaseScript, []string{key}, holder).SetVal(int64(0))
    deleted, err = store.Release(context.Background(), key, holder)
    require.NoError(t, err)
    assert.False(t, deleted)

    require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyFormat(t *testing.T) {
    eventID := uuid.MustParse("7b5dfd1b-84f5-4b74-b8a4-9e2c0a3d6f11")
    userID := uuid.MustParse("0c9a3c66-0a62-4c5e-9d2f-3d1f5b7a8e21")

    assert.Equal(t, "seat_lock:7b5dfd1b-84f5-4b74-b8a4-9e2c0a3d6f11:A12", Key(eventID, "A12"))
    assert.Equal(t, "locked_by_0c9a3c66-0a62-4c5e-9d2f-3d1f5b7a8e21", HolderValue(userID))
}
