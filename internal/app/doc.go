// Package app provides the Application Composition Layer for neostream.
//
// # Architecture Role
//
// The app package sits above the domain and service layers and is responsible
// for composing them into a running application. It is NOT a business logic
// layer - business logic belongs in internal/app/services/.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Main application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   └── stream/         # Stream model, status derivation, progress math
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # Store interfaces (StreamStore)
//	│   └── memory/         # In-memory implementation
//	├── services/           # Business logic
//	│   └── streams/        # Stream lifecycle service and scheduled reporter
//	├── events/             # Outbound lifecycle publishers (Redis, webhook)
//	├── httpapi/            # HTTP handlers, validation, audit, websocket watch
//	├── runtime/            # Config-driven assembly of the full application
//	├── system/             # System management (lifecycle, descriptors)
//	└── metrics/            # Application metrics
//
// # Responsibilities
//
// The app package is responsible for:
//
//   - Composing services from internal/app/services/ with their dependencies
//   - Defining storage interfaces that services depend on
//   - Providing domain models shared across services
//   - Exposing HTTP API endpoints for external access
//   - Managing application-level concerns (auth, metrics, system status)
//
// # What Belongs Here vs internal/app/services/
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                      internal/app/ (Composition)                     │
//	├─────────────────────────────────────────────────────────────────────┤
//	│ ✓ Application struct and wiring                                      │
//	│ ✓ Domain models (pure data, no business logic)                       │
//	│ ✓ Storage interfaces (repository pattern)                            │
//	│ ✓ HTTP handlers (request/response handling)                          │
//	│ ✓ Application metrics and observability                              │
//	│ ✗ Business logic (belongs in internal/app/services/)                 │
//	└─────────────────────────────────────────────────────────────────────┘
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                internal/app/services/ (Business Logic)               │
//	├─────────────────────────────────────────────────────────────────────┤
//	│ ✓ Service implementations (streams)                                  │
//	│ ✓ Business rules and validation                                      │
//	│ ✓ Event emission on state transitions                                │
//	│ ✗ HTTP handling (belongs in internal/app/httpapi/)                   │
//	│ ✗ Storage implementations (belongs in internal/app/storage/)         │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Dependency Direction
//
// The dependency flow is:
//
//	cmd/neostream/
//	      │
//	      ▼
//	internal/app/runtime/ (config-driven assembly)
//	      │
//	      ├──► internal/app/ (composition)
//	      │           │
//	      │           └──► internal/app/services/streams/ (business logic)
//	      │                       │
//	      │                       ├──► internal/app/storage/ (interfaces)
//	      │                       │
//	      │                       └──► internal/app/events/ (publishers)
//	      │
//	      ├──► internal/app/httpapi/ (HTTP surface)
//	      │
//	      └──► internal/api/httpserver/ (listener lifecycle)
//
// # Example: Adding a New Domain
//
// When adding a new domain (e.g., "vesting"):
//
//  1. Create domain models in internal/app/domain/vesting/
//  2. Add storage interface to internal/app/storage/interfaces.go
//  3. Implement storage in internal/app/storage/memory/
//  4. Create service in internal/app/services/vesting/service.go
//  5. Wire service in internal/app/application.go
//  6. Add HTTP handlers in internal/app/httpapi/
//
// # Related Packages
//
//   - internal/config: Environment and file configuration
//   - internal/middleware: HTTP middleware chain (auth, CORS, rate limit, tracing)
//   - internal/httputil: Shared request/response helpers
//   - pkg/logger: Structured logging
package app
