// Package harness provides convergence testing for directory replication.
//
// The harness loads YAML scenarios describing a stream of account
// operations, replays the stream against two independent replicas in
// different orders, and checks that both replicas converge to the same
// directory. The converged snapshot can additionally be compared against
// a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	accounts:
//	  - name: alice
//	    ts: 1000
//	updates:
//	  - account: alice
//	    field: vhost
//	    ts: 1300
//	    value: "oper.example"
//	removals:
//	  - account: carol
//	    ts: 2000
//	assertions:
//	  - account: alice
//	    field: vhost
//	    want: "1300 oper.example"
//
// Account creations are replayed first on both replicas, updates are
// replayed in scenario order on one replica and reversed on the other,
// and removals last. Field updates commute, so both replicas must end
// identical; a scenario whose updates do not commute (two different
// values under the same timestamp) is a scenario bug.
//
// # Assertions
//
// Assertions check a single field of the converged directory against its
// storage-format serialization, the record creation timestamp via the
// "created" pseudo-field, or account absence via "absent: true".
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/out-of-order.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil || !result.Pass {
//	    ...
//	}
package harness
