package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FarahDimassi/coachchat-go/chat"
)

func Test_ResolveRoom_is_symmetric(t *testing.T) {
	pairs := [][2]int64{{7, 42}, {42, 7}, {1, 1}, {0, 5}, {999999, 3}}
	for _, p := range pairs {
		assert.Equal(t, chat.ResolveRoom(p[0], p[1]), chat.ResolveRoom(p[1], p[0]),
			"room identity must not depend on argument order (%d, %d)", p[0], p[1])
	}
}

func Test_ResolveRoom_orders_smaller_id_first(t *testing.T) {
	assert.Equal(t, "7_42", chat.ResolveRoom(7, 42))
	assert.Equal(t, "7_42", chat.ResolveRoom(42, 7))
	assert.Equal(t, "3_3", chat.ResolveRoom(3, 3))
}

func Test_Room_counterpart(t *testing.T) {
	room := chat.NewRoom(7, 42)

	assert.Equal(t, int64(42), room.Counterpart(7))
	assert.Equal(t, int64(7), room.Counterpart(42))
	assert.Equal(t, "7_42", room.ID)
}
