package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Kudzu86/P9bis/internal/core/domain"
	"github.com/Kudzu86/P9bis/internal/core/ports"
)

type followService struct {
	graph     ports.FollowStore
	users     ports.UserDirectory
	publisher ports.EventPublisher
}

func NewFollowService(graph ports.FollowStore, users ports.UserDirectory, pub ports.EventPublisher) ports.FollowService {
	return &followService{graph: graph, users: users, publisher: pub}
}

// Follow résout d'abord le handle : l'UI envoie "@machin", pas un id.
func (s *followService) Follow(ctx context.Context, followerID, targetHandle string) (*domain.FollowEdge, error) {
	targetHandle = strings.TrimPrefix(strings.TrimSpace(targetHandle), "@")
	target, err := s.users.UserByHandle(ctx, targetHandle)
	if err != nil {
		return nil, err
	}

	edge, err := domain.NewFollowEdge(followerID, target.ID)
	if err != nil {
		return nil, err
	}

	if err := s.graph.CreateFollow(ctx, edge); err != nil {
		return nil, err
	}

	// Publication best-effort : la relation est créée, l'événement peut
	// être rejoué plus tard si le broker est indisponible.
	if err := s.publisher.PublishFollowCreated(ctx, edge); err != nil {
		slog.Warn("⚠️ Failed to publish follow event", "edge_id", edge.ID, "error", err)
	}

	return edge, nil
}

func (s *followService) Unfollow(ctx context.Context, edgeID, actorID string) error {
	// Le store vérifie la propriété : on ne supprime jamais le lien d'un autre.
	return s.graph.DeleteFollow(ctx, edgeID, actorID)
}

func (s *followService) Following(ctx context.Context, userID string) ([]string, error) {
	return s.graph.ListFollowing(ctx, userID)
}

func (s *followService) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.graph.ListFollowers(ctx, userID)
}

// FollowerHandles croise le graphe et l'annuaire : la page de gestion des
// abonnements affiche des handles, jamais des ids techniques.
func (s *followService) FollowerHandles(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.graph.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}

	handles := make([]string, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.UserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		handles = append(handles, user.Handle)
	}
	return handles, nil
}

func (s *followService) FollowingEdges(ctx context.Context, userID string) ([]domain.FollowEdge, error) {
	return s.graph.ListFollowingEdges(ctx, userID)
}
