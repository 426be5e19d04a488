// Package hcl_adapter loads composition files written in HCL into the
// format-agnostic config.Model.
//
// Two block types are understood:
//
//	system "Fluid" {
//	  members = ["fluid.main"]
//	}
//
//	contributor "sphere_emitter" {
//	  system     = "Fluid"
//	  structure  = ["float3 pos;", "float3 vel;"]
//	  defines    = ["GRAVITY=9.81"]
//	  emit_count = 1000
//	}
//
// Attribute values are evaluated as expressions and converted with cty, so a
// single string is accepted wherever a list of strings is.
package hcl_adapter
