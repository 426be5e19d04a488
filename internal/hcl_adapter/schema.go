package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks of one file.
type fileRoot struct {
	Systems      []*systemBlock      `hcl:"system,block"`
	Contributors []*contributorBlock `hcl:"contributor,block"`
	Remain       hcl.Body            `hcl:",remain"`
}

type systemBlock struct {
	Name    string   `hcl:"name,label"`
	Members []string `hcl:"members,optional"`
}

type contributorBlock struct {
	ID        string         `hcl:"id,label"`
	System    string         `hcl:"system,optional"`
	Structure hcl.Expression `hcl:"structure,optional"`
	Defines   hcl.Expression `hcl:"defines,optional"`
	EmitCount hcl.Expression `hcl:"emit_count,optional"`
}
