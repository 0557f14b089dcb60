/*
Package ports defines the driven ports (interfaces) for branchflow.

These interfaces decouple flow management from external implementations, allowing
the workspace to work with various storage backends and lock providers.

# Key Interfaces

  - FlowStore: Responsible for persisting and loading flow documents by id.
  - DistributedLocker: Provides distributed locking for concurrent edits of the same flow.
  - Analyzer: Validates and routes a flow snapshot.
*/
package ports
