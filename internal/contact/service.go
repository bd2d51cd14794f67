package contact

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input Contact) (Contact, error) {
	if input.Phone == "" && input.Email == "" && input.ChatID == "" && input.PushEndpoint == "" {
		return Contact{}, errors.New("contact needs at least one reachable address")
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO contacts (id, user_id, name, phone, email, chat_id, push_endpoint)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.Phone, input.Email, input.ChatID, input.PushEndpoint)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Contact{}, err
	}
	return input, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Contact) (Contact, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contact{}, err
	}
	if patch.Name != "" {
		c.Name = patch.Name
	}
	if patch.Phone != "" {
		c.Phone = patch.Phone
	}
	if patch.Email != "" {
		c.Email = patch.Email
	}
	if patch.ChatID != "" {
		c.ChatID = patch.ChatID
	}
	if patch.PushEndpoint != "" {
		c.PushEndpoint = patch.PushEndpoint
	}

	_, err = s.db.Exec(ctx, `
		UPDATE contacts
		SET name=$2, phone=$3, email=$4, chat_id=$5, push_endpoint=$6
		WHERE id=$1
	`, c.ID, c.Name, c.Phone, c.Email, c.ChatID, c.PushEndpoint)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (Contact, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, COALESCE(phone,''), COALESCE(email,''), COALESCE(chat_id,''), COALESCE(push_endpoint,''), created_at
		FROM contacts WHERE id=$1
	`, id)
	var c Contact
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.ChatID, &c.PushEndpoint, &c.CreatedAt); err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM contacts WHERE id=$1`, id)
	return err
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Contact, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, COALESCE(phone,''), COALESCE(email,''), COALESCE(chat_id,''), COALESCE(push_endpoint,''), created_at
		FROM contacts WHERE user_id=$1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.ChatID, &c.PushEndpoint, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}
