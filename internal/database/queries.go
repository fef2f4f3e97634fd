package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentFilter narrows agent listings. Zero values mean "no filter".
type AgentFilter struct {
	NetworkKey string
	Status     string
	Skill      string
	Domain     string
	Search     string
}

func (d *Database) agentListScope(filter AgentFilter) *gorm.DB {
	q := d.db.Model(&Agent{}).
		Joins("JOIN network ON network.id = agent.network_id")
	if filter.NetworkKey != "" {
		q = q.Where("network.key = ?", filter.NetworkKey)
	}
	if filter.Status != "" {
		q = q.Where("agent.status = ?", filter.Status)
	}
	if filter.Skill != "" {
		q = q.Where("agent.skills LIKE ?", "%"+likeEscape(filter.Skill)+"%")
	}
	if filter.Domain != "" {
		q = q.Where("agent.domains LIKE ?", "%"+likeEscape(filter.Domain)+"%")
	}
	if filter.Search != "" {
		pattern := "%" + likeEscape(filter.Search) + "%"
		q = q.Where("agent.name LIKE ? OR agent.description LIKE ?", pattern, pattern)
	}
	return q
}

func likeEscape(s string) string {
	s = strings.ReplaceAll(s, "%", "")
	return strings.ReplaceAll(s, "_", "")
}

// GetAgents lists agents newest-first with the given filter and paging.
func (d *Database) GetAgents(
	filter AgentFilter,
	limit, offset int,
) ([]Agent, int64, error) {
	var total int64
	if err := d.agentListScope(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count agents: %w", err)
	}

	var agents []Agent
	err := d.agentListScope(filter).
		Preload("Network").
		Order("agent.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&agents).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, total, nil
}

// GetAgentByID fetches one agent with its network preloaded, or nil.
func (d *Database) GetAgentByID(id uuid.UUID) (*Agent, error) {
	var agent Agent
	err := d.db.Preload("Network").Where("id = ?", id).First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetAgentActivities lists an agent's activity log newest-first.
func (d *Database) GetAgentActivities(
	agentID uuid.UUID,
	limit, offset int,
) ([]Activity, int64, error) {
	var total int64
	if err := d.db.Model(&Activity{}).
		Where("agent_id = ?", agentID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	var activities []Activity
	err := d.db.
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, total, nil
}

// GetNetworks lists all known networks.
func (d *Database) GetNetworks() ([]Network, error) {
	var networks []Network
	if err := d.db.Order("key ASC").Find(&networks).Error; err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	return networks, nil
}

// NetworkAgentCount is one row of the per-network agent breakdown.
type NetworkAgentCount struct {
	NetworkKey string `json:"network_key"`
	Count      int64  `json:"count"`
}

// Stats is the aggregate snapshot served by the stats endpoint.
type Stats struct {
	TotalAgents            int64               `json:"total_agents"`
	ActiveAgents           int64               `json:"active_agents"`
	ClassifiedAgents       int64               `json:"classified_agents"`
	AverageReputationScore float64             `json:"average_reputation_score"`
	AgentsByNetwork        []NetworkAgentCount `json:"agents_by_network"`
}

func (d *Database) GetStats() (*Stats, error) {
	var stats Stats

	if err := d.db.Model(&Agent{}).Count(&stats.TotalAgents).Error; err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}
	if err := d.db.Model(&Agent{}).
		Where("status = ?", "active").
		Count(&stats.ActiveAgents).Error; err != nil {
		return nil, fmt.Errorf("count active agents: %w", err)
	}
	if err := d.db.Model(&Agent{}).
		Where("skills IS NOT NULL AND skills != '[]' AND skills != ''").
		Count(&stats.ClassifiedAgents).Error; err != nil {
		return nil, fmt.Errorf("count classified agents: %w", err)
	}

	var avg struct{ Avg float64 }
	q := `
SELECT COALESCE(AVG(reputation_score), 0) AS avg
FROM agent
WHERE reputation_count > 0;`
	if err := d.db.Raw(q).Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("average reputation: %w", err)
	}
	stats.AverageReputationScore = avg.Avg

	byNetwork := `
SELECT n.key AS network_key, COUNT(a.id) AS count
FROM network n
LEFT JOIN agent a ON a.network_id = n.id
GROUP BY n.key
ORDER BY n.key;`
	if err := d.db.Raw(byNetwork).Scan(&stats.AgentsByNetwork).Error; err != nil {
		return nil, fmt.Errorf("agents by network: %w", err)
	}

	return &stats, nil
}
