package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/whatid/internal/parser"
	"github.com/roach88/whatid/internal/what"
)

// Binding is one nickname and the identity it names.
type Binding struct {
	Nickname string
	ID       string
	UUID     uuid.UUID
	// Saved reports whether the configuration was stored with the binding.
	Saved bool
}

// normalizeNickname applies NFC so visually identical nicknames collide.
func normalizeNickname(nickname string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(nickname))
	if n == "" {
		return "", fmt.Errorf("%w: nickname is empty", ErrInvalidNickname)
	}
	for _, r := range n {
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: nickname %q has a non-printable character", ErrInvalidNickname, nickname)
		}
	}
	return n, nil
}

// RegisterNickname binds nickname to id. Re-registering the same pair is a
// no-op; binding either side to something else is a ConflictError.
func (s *Store) RegisterNickname(ctx context.Context, nickname, id string) error {
	return s.register(ctx, nickname, id, nil)
}

// RegisterConfig binds nickname to the identity of c. With save, the full
// configuration is kept and can be recovered with Config.
func (s *Store) RegisterConfig(ctx context.Context, nickname string, c *what.Config, save bool) error {
	id, err := c.ID()
	if err != nil {
		return fmt.Errorf("register %s: %w", nickname, err)
	}
	if !save {
		return s.register(ctx, nickname, id, nil)
	}
	full, err := c.ID(what.IncludeNonID())
	if err != nil {
		return fmt.Errorf("register %s: %w", nickname, err)
	}
	return s.register(ctx, nickname, id, &savedConfig{fullID: full, nonIDKeys: c.NonIDKeys()})
}

type savedConfig struct {
	fullID    string
	nonIDKeys []string
}

func (s *Store) register(ctx context.Context, nickname, id string, saved *savedConfig) error {
	nick, err := normalizeNickname(nickname)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("register %s: empty id", nick)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("register %s: %w", nick, err)
	}
	defer tx.Rollback()

	var boundID string
	err = tx.QueryRowContext(ctx, `SELECT whatid FROM nicknames WHERE nickname = ?`, nick).Scan(&boundID)
	switch {
	case err == nil && boundID != id:
		return &ConflictError{Code: ErrCodeNicknameTaken, Nickname: nick, ID: id, Existing: boundID}
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("register %s: %w", nick, err)
	}

	var boundNick string
	err = tx.QueryRowContext(ctx, `SELECT nickname FROM nicknames WHERE whatid = ?`, id).Scan(&boundNick)
	switch {
	case err == nil && boundNick != nick:
		return &ConflictError{Code: ErrCodeIDTaken, Nickname: nick, ID: id, Existing: boundNick}
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("register %s: %w", nick, err)
	}

	var fullID, nonID sql.NullString
	if saved != nil {
		fullID = sql.NullString{String: saved.fullID, Valid: true}
		nonID = sql.NullString{String: strings.Join(saved.nonIDKeys, ","), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO nicknames (nickname, whatid, uuid, full_id, non_id_keys, seq)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM nicknames))
		ON CONFLICT(nickname) DO UPDATE SET
			full_id = COALESCE(excluded.full_id, nicknames.full_id),
			non_id_keys = COALESCE(excluded.non_id_keys, nicknames.non_id_keys)
	`, nick, id, what.IdentityUUID(id).String(), fullID, nonID)
	if err != nil {
		return fmt.Errorf("register %s: %w", nick, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("register %s: %w", nick, err)
	}

	slog.Debug("nickname registered", "nickname", nick, "id", id, "saved", saved != nil)
	return nil
}

// NicknameToID returns the identity bound to nickname.
func (s *Store) NicknameToID(ctx context.Context, nickname string) (string, bool, error) {
	nick, err := normalizeNickname(nickname)
	if err != nil {
		return "", false, err
	}
	var id string
	err = s.db.QueryRowContext(ctx, `SELECT whatid FROM nicknames WHERE nickname = ?`, nick).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("nickname to id: %w", err)
	}
	return id, true, nil
}

// IDToNickname returns the nickname bound to id.
func (s *Store) IDToNickname(ctx context.Context, id string) (string, bool, error) {
	var nick string
	err := s.db.QueryRowContext(ctx, `SELECT nickname FROM nicknames WHERE whatid = ?`, id).Scan(&nick)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("id to nickname: %w", err)
	}
	return nick, true, nil
}

// NicknameOrID returns the nickname of id, or id itself when it has none.
func (s *Store) NicknameOrID(ctx context.Context, id string) (string, error) {
	nick, ok, err := s.IDToNickname(ctx, id)
	if err != nil || !ok {
		return id, err
	}
	return nick, nil
}

// LookupUUID finds the binding whose identity has the given UUID.
func (s *Store) LookupUUID(ctx context.Context, u uuid.UUID) (Binding, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT nickname, whatid, uuid, full_id IS NOT NULL
		FROM nicknames
		WHERE uuid = ?
	`, u.String())
	if err != nil {
		return Binding{}, false, fmt.Errorf("lookup uuid: %w", err)
	}
	bindings, err := scanBindings(rows)
	if err != nil || len(bindings) == 0 {
		return Binding{}, false, err
	}
	return bindings[0], true, nil
}

// Config rebuilds the configuration saved under nickname. It reports false
// when the nickname is unknown or was registered without saving.
func (s *Store) Config(ctx context.Context, nickname string) (*what.Config, bool, error) {
	nick, err := normalizeNickname(nickname)
	if err != nil {
		return nil, false, err
	}
	var fullID, nonID sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT full_id, non_id_keys FROM nicknames WHERE nickname = ?`, nick).
		Scan(&fullID, &nonID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !fullID.Valid) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("config %s: %w", nick, err)
	}

	c, err := parser.Decode(fullID.String)
	if err != nil {
		return nil, false, fmt.Errorf("config %s: %w", nick, err)
	}
	if nonID.String != "" {
		keys := strings.Split(nonID.String, ",")
		if c, err = what.New(c.Name, c.Params, what.WithOutName(c.OutName), what.WithNonIDKeys(keys...)); err != nil {
			return nil, false, fmt.Errorf("config %s: %w", nick, err)
		}
	}
	return c, true, nil
}

// RemoveNickname deletes the binding of nickname, reporting whether one
// existed.
func (s *Store) RemoveNickname(ctx context.Context, nickname string) (bool, error) {
	nick, err := normalizeNickname(nickname)
	if err != nil {
		return false, err
	}
	return s.remove(ctx, `DELETE FROM nicknames WHERE nickname = ?`, nick)
}

// RemoveID deletes the binding of id, reporting whether one existed.
func (s *Store) RemoveID(ctx context.Context, id string) (bool, error) {
	return s.remove(ctx, `DELETE FROM nicknames WHERE whatid = ?`, id)
}

func (s *Store) remove(ctx context.Context, query, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", key, err)
	}
	if n > 0 {
		slog.Debug("nickname binding removed", "key", key)
	}
	return n > 0, nil
}

// AllNicknames returns every binding ordered by nickname.
func (s *Store) AllNicknames(ctx context.Context) ([]Binding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT nickname, whatid, uuid, full_id IS NOT NULL
		FROM nicknames
		ORDER BY nickname COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("all nicknames: %w", err)
	}
	return scanBindings(rows)
}

// Reset deletes every binding.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM nicknames`); err != nil {
		return fmt.Errorf("reset nicknames: %w", err)
	}
	slog.Info("nickname registry reset")
	return nil
}

// scanBindings reads binding rows and closes them. The result is never nil.
func scanBindings(rows *sql.Rows) ([]Binding, error) {
	defer rows.Close()

	bindings := []Binding{}
	for rows.Next() {
		var b Binding
		var u string
		if err := rows.Scan(&b.Nickname, &b.ID, &u, &b.Saved); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		parsed, err := uuid.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", b.Nickname, err)
		}
		b.UUID = parsed
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return bindings, nil
}
