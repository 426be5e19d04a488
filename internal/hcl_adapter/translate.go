// This file translates decoded HCL blocks into the config model.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/vk/bufcompose/internal/config"
	"github.com/vk/bufcompose/internal/ctxlog"
)

func translateSystem(s *systemBlock, file string) *config.System {
	members := s.Members
	if len(members) == 0 {
		members = []string{config.DefaultMember(s.Name)}
	}
	return &config.System{
		Name:    s.Name,
		Members: members,
		Source:  file,
	}
}

func translateContributor(ctx context.Context, c *contributorBlock, file string) (*config.Contributor, error) {
	logger := ctxlog.FromContext(ctx).With("contributor", c.ID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL contributor to internal config model.")

	structure, err := stringsAttr(ctx, c.Structure, "structure")
	if err != nil {
		return nil, fmt.Errorf("contributor '%s': %w", c.ID, err)
	}
	defines, err := stringsAttr(ctx, c.Defines, "defines")
	if err != nil {
		return nil, fmt.Errorf("contributor '%s': %w", c.ID, err)
	}
	emitCount, err := intAttr(ctx, c.EmitCount, "emit_count")
	if err != nil {
		return nil, fmt.Errorf("contributor '%s': %w", c.ID, err)
	}
	if emitCount < 0 {
		return nil, fmt.Errorf("contributor '%s': emit_count must not be negative, got %d", c.ID, emitCount)
	}

	return &config.Contributor{
		ID:        c.ID,
		System:    c.System,
		Structure: structure,
		Defines:   defines,
		EmitCount: emitCount,
		Source:    file,
	}, nil
}
