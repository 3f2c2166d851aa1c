package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Kudzu86/P9bis/internal/core/domain"
)

type Neo4jFollowRepo struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jFollowRepo(driver neo4j.DriverWithContext) *Neo4jFollowRepo {
	return &Neo4jFollowRepo{driver: driver}
}

// EnsureSchema crée les index pour que les lookups par ID soient O(1)
func (r *Neo4jFollowRepo) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Contrainte d'unicité sur User.id (crée aussi un index)
		query := `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`
		_, err := tx.Run(ctx, query, nil)
		return nil, err
	})
	return err
}

// CreateFollow crée le lien dirigé. MERGE est idempotent : si la flèche
// existait déjà, ON CREATE ne pose pas notre id et on détecte le doublon en
// comparant l'id renvoyé au candidat.
func (r *Neo4jFollowRepo) CreateFollow(ctx context.Context, edge *domain.FollowEdge) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (a:User {id: $followerId})
			MERGE (b:User {id: $followeeId})
			MERGE (a)-[r:FOLLOWS]->(b)
			ON CREATE SET r.id = $edgeId, r.created_at = $createdAt
			RETURN r.id AS edgeId
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"followerId": edge.FollowerID,
			"followeeId": edge.FolloweeID,
			"edgeId":     edge.ID,
			"createdAt":  edge.CreatedAt,
		})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		existing, _ := rec.Get("edgeId")
		if existing != edge.ID {
			return nil, domain.ErrDuplicateFollow
		}
		return nil, nil
	})
	return err
}

// DeleteFollow supprime par id d'arête, borné au follower : on ne peut pas
// retirer le lien de quelqu'un d'autre.
func (r *Neo4jFollowRepo) DeleteFollow(ctx context.Context, edgeID, followerID string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a:User {id: $followerId})-[r:FOLLOWS {id: $edgeId}]->(:User)
			DELETE r
			RETURN count(r) AS removed
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"followerId": followerID,
			"edgeId":     edgeID,
		})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		removed, _ := rec.Get("removed")
		if removed.(int64) == 0 {
			return nil, domain.ErrFollowNotFound
		}
		return nil, nil
	})
	return err
}

func (r *Neo4jFollowRepo) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	return r.listIDs(ctx,
		`MATCH (:User {id: $userId})-[:FOLLOWS]->(f:User) RETURN f.id AS userId`,
		userID,
	)
}

func (r *Neo4jFollowRepo) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	return r.listIDs(ctx,
		`MATCH (:User {id: $userId})<-[:FOLLOWS]-(f:User) RETURN f.id AS userId`,
		userID,
	)
}

func (r *Neo4jFollowRepo) ListFollowingEdges(ctx context.Context, userID string) ([]domain.FollowEdge, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a:User {id: $userId})-[r:FOLLOWS]->(f:User)
			RETURN r.id AS edgeId, f.id AS followeeId, r.created_at AS createdAt
		`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}

		var edges []domain.FollowEdge
		for res.Next(ctx) {
			rec := res.Record()
			edgeID, _ := rec.Get("edgeId")
			followeeID, _ := rec.Get("followeeId")
			createdAt, _ := rec.Get("createdAt")

			edge := domain.FollowEdge{
				FollowerID: userID,
				FolloweeID: followeeID.(string),
			}
			if s, ok := edgeID.(string); ok {
				edge.ID = s
			}
			if ts, ok := createdAt.(time.Time); ok {
				edge.CreatedAt = ts
			}
			edges = append(edges, edge)
		}
		return edges, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: list following edges: %w", err)
	}
	return result.([]domain.FollowEdge), nil
}

func (r *Neo4jFollowRepo) listIDs(ctx context.Context, query, userID string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}

		var ids []string
		for res.Next(ctx) {
			id, _ := res.Record().Get("userId")
			ids = append(ids, id.(string))
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: list relations: %w", err)
	}
	return result.([]string), nil
}
