package service

import (
	"context"

	"fireops/db"
	"fireops/listing"
	"fireops/models"
	"fireops/workflow"

	"github.com/rs/zerolog"
)

// ClientService manages service-contract clients.
type ClientService struct {
	store Entities
	log   zerolog.Logger
}

func NewClientService(store Entities, logger zerolog.Logger) *ClientService {
	return &ClientService{store: store, log: logger.With().Str("service", "clients").Logger()}
}

// ClientDetail is a client with everything recorded against it.
type ClientDetail struct {
	Client     models.Client           `json:"client"`
	Frequency  string                  `json:"frequencyLabel"`
	Visits     []models.Visit          `json:"visits"`
	Tasks      []models.CorrectiveTask `json:"tasks"`
	TaskCounts listing.TaskCounts      `json:"taskCounts"`
}

// List returns clients ordered by company name and narrowed by filter.
func (s *ClientService) List(ctx context.Context, filter listing.ClientFilter) ([]models.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list clients")
		return nil, err
	}
	return listing.FilterClients(clients, filter), nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	return s.store.GetClient(ctx, id)
}

// Detail returns a client with its visits and corrective tasks.
func (s *ClientService) Detail(ctx context.Context, id string) (*ClientDetail, error) {
	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	visits, err := s.store.ListVisits(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("client_id", id).Msg("client visits unavailable")
		visits = []models.Visit{}
	}
	tasks, err := s.store.ListTasks(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("client_id", id).Msg("client tasks unavailable")
		tasks = []models.CorrectiveTask{}
	}
	return &ClientDetail{
		Client:     *client,
		Frequency:  workflow.FrequencyLabel(client.Frequency),
		Visits:     visits,
		Tasks:      tasks,
		TaskCounts: listing.CountTasksByStatus(tasks),
	}, nil
}

// Create validates the form and stores a new client.
func (s *ClientService) Create(ctx context.Context, in models.ClientInput) (*models.Client, error) {
	client, err := in.Client()
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		s.log.Error().Err(err).Msg("failed to create client")
		return nil, err
	}
	s.log.Info().Str("client_id", client.ID).Str("company", client.CompanyName).Msg("client created")
	return client, nil
}

// Update replaces the mutable fields of a client.
func (s *ClientService) Update(ctx context.Context, id string, in models.ClientInput) (*models.Client, error) {
	client, err := in.Client()
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateClient(ctx, id, db.ClientFields(client)); err != nil {
		if !db.IsNotFound(err) {
			s.log.Error().Err(err).Str("client_id", id).Msg("failed to update client")
		}
		return nil, err
	}
	return s.store.GetClient(ctx, id)
}

// Delete removes a client. Visits and tasks referencing it are kept and
// render as "client not found".
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		s.log.Error().Err(err).Str("client_id", id).Msg("failed to delete client")
		return err
	}
	return nil
}

// Index returns all clients keyed by ID.
func (s *ClientService) Index(ctx context.Context) (map[string]models.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return listing.ClientIndex(clients), nil
}
