package telegram

import (
	"strings"
	"testing"

	"civicbot/backend/internal/localization"
	"civicbot/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocalizer(t *testing.T) *localization.Localizer {
	t.Helper()
	loc, err := localization.New()
	require.NoError(t, err)
	return loc
}

func TestRenderCardFull(t *testing.T) {
	loc := testLocalizer(t)
	address := "ул. Ленина 5"
	c := &models.Complaint{
		ID:           "7",
		AuthorHandle: "resident",
		Category:     "Вода",
		AddressText:  &address,
		Description:  "Нет воды третий день",
	}

	line := renderStatusLine(loc, "ru", loc.Get("ru", "status_free"), "")
	text := renderCard(loc, "ru", c, line)

	assert.Contains(t, text, "#7")
	assert.Contains(t, text, "Вода")
	assert.Contains(t, text, "@resident")
	assert.Contains(t, text, "ул. Ленина 5")
	assert.Contains(t, text, "Нет воды третий день")
	assert.True(t, strings.HasSuffix(text, "Свободна"), "status line must close the card")
}

func TestRenderCardPlaceholders(t *testing.T) {
	loc := testLocalizer(t)
	c := &models.Complaint{ID: "7", Category: "Шум", Description: "Шумят"}

	text := renderCard(loc, "ru", c, renderStatusLine(loc, "ru", "Свободна", ""))

	assert.Contains(t, text, "Адрес: —")
	assert.Contains(t, text, "Пользователь", "missing handle falls back to a neutral label")
}

func TestRenderStatusLineWithAssignee(t *testing.T) {
	loc := testLocalizer(t)

	line := renderStatusLine(loc, "ru", loc.Get("ru", "status_in_progress"), "@fixer")
	assert.Equal(t, "Статус: В работе (исполнитель: @fixer)", line)

	bare := renderStatusLine(loc, "ru", loc.Get("ru", "status_free"), "")
	assert.Equal(t, "Статус: Свободна", bare)
}

func TestStatusLabel(t *testing.T) {
	loc := testLocalizer(t)

	assert.Equal(t, "Новая", statusLabel(loc, "ru", models.StatusNew))
	assert.Equal(t, "В работе", statusLabel(loc, "ru", models.StatusInProgress))
	assert.Equal(t, "Завершена ✅", statusLabel(loc, "ru", models.StatusDone))
	assert.Equal(t, "Закрыта", statusLabel(loc, "ru", models.StatusClosed))
	assert.Equal(t, "weird", statusLabel(loc, "ru", "weird"))
}

func TestSafeMention(t *testing.T) {
	assert.Equal(t, "@fixer", safeMention("fixer", "Пётр", "Пользователь"))
	assert.Equal(t, "Пётр", safeMention("", "Пётр", "Пользователь"))
	assert.Equal(t, "Пользователь", safeMention("", "", "Пользователь"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", truncate("", 10))
	assert.Equal(t, "короткий", truncate("короткий", 10))

	long := strings.Repeat("д", 80)
	got := truncate(long, 60)
	assert.Equal(t, 60, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
