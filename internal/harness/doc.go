// Package harness runs generation scenarios end to end and compares their
// output against golden files.
//
// A scenario is a YAML file holding a document, layout constants and a list
// of generation requests. The harness loads the document into an in-memory
// host, drives every request through engine.Orchestrator backed by an
// in-memory store, and evaluates the scenario's assertions against what was
// placed.
//
// # Scenario Format
//
//	name: button_fanout
//	description: "Every Button combination is placed in raster order"
//	grid: { padding: 10, row_width: 300 }
//	document:
//	  page: Scenario
//	  components:
//	    - id: "1:1"
//	      name: Button
//	      properties:
//	        - { name: Size, type: VARIANT, options: [Small, Large] }
//	      variants:
//	        - { id: "1:2", values: { Size: Small }, width: 100, height: 50 }
//	        - { id: "1:3", values: { Size: Large }, width: 100, height: 50 }
//	requests:
//	  - component: "1:1"
//	    expect: { placed: 2 }
//	assertions:
//	  - type: placed_count
//	    count: 2
//	  - type: cursor
//	    x: 220
//
// document_path may replace the inline document; it is resolved relative to
// the scenario file.
//
// # Assertion Types
//
//   - placed_count: number of placed instances in the final document
//   - failure_count: number of discarded combinations, optionally for one code
//   - placement: a named instance sits at x/y with the given properties
//   - cursor: the persisted cursor after the last request
//   - run_status: number of logged runs with a status
//   - live_instances: instances left in the document, placed or not
//
// # Deterministic Testing
//
// Instance IDs are sequential ("inst-1", ...), run IDs are "run-1", ...,
// TEXT samples come from testutil.CountingSampler and store timestamps from
// a stepping clock, so repeated runs produce byte-identical exports.
package harness
