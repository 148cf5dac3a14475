// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package toolregistry

// DefaultDefinitions lists the tools every fresh council installation
// ships with. Tool implementations themselves live alongside their
// domain packages; this table only carries what search needs.
var DefaultDefinitions = []Definition{
	{Name: "read_file", Description: "Read file contents", Category: CategoryFilesystem,
		Keywords: []string{"read", "file", "cat", "view"}, TokenCost: 80, DeferLoading: true},
	{Name: "write_file", Description: "Write file contents", Category: CategoryFilesystem,
		Keywords: []string{"write", "file", "save", "create"}, TokenCost: 100, DeferLoading: true},
	{Name: "list_dir", Description: "List directory contents", Category: CategoryFilesystem,
		Keywords: []string{"list", "directory", "ls", "dir"}, TokenCost: 60, DeferLoading: true},
	{Name: "delete_file", Description: "Delete a file or directory", Category: CategoryFilesystem,
		Keywords: []string{"delete", "remove", "rm", "del"}, TokenCost: 70, DeferLoading: true},
	{Name: "copy_file", Description: "Copy a file or directory", Category: CategoryFilesystem,
		Keywords: []string{"copy", "cp", "duplicate"}, TokenCost: 60, DeferLoading: true},

	{Name: "grep_search", Description: "Search text across files", Category: CategorySearch,
		Keywords: []string{"grep", "search", "find", "pattern", "rg"}, TokenCost: 120, DeferLoading: true},
	{Name: "find_files", Description: "Search for files by name", Category: CategorySearch,
		Keywords: []string{"find", "locate", "fd"}, TokenCost: 80, DeferLoading: true},
	{Name: "web_search", Description: "Search the web for current information", Category: CategorySearch,
		Keywords: []string{"web", "search", "google"}, TokenCost: 150, DeferLoading: true},

	{Name: "git_status", Description: "Show git repository status", Category: CategoryGit,
		Keywords: []string{"git", "status", "changes"}, TokenCost: 70, DeferLoading: true},
	{Name: "git_commit", Description: "Commit git changes", Category: CategoryGit,
		Keywords: []string{"git", "commit", "save"}, TokenCost: 90, DeferLoading: true},
	{Name: "git_diff", Description: "Show file diffs", Category: CategoryGit,
		Keywords: []string{"git", "diff", "changes"}, TokenCost: 100, DeferLoading: true},
	{Name: "git_log", Description: "Show commit history", Category: CategoryGit,
		Keywords: []string{"git", "log", "history"}, TokenCost: 80, DeferLoading: true},
	{Name: "git_branch", Description: "Manage git branches", Category: CategoryGit,
		Keywords: []string{"git", "branch", "checkout"}, TokenCost: 70, DeferLoading: true},

	{Name: "run_command", Description: "Execute a shell command", Category: CategoryCode,
		Keywords: []string{"run", "command", "bash", "shell", "execute"}, TokenCost: 150, DeferLoading: true},
	{Name: "run_sandboxed", Description: "Execute code inside an isolated sandbox", Category: CategoryCode,
		Keywords: []string{"sandbox", "run", "execute", "isolated"}, TokenCost: 180, DeferLoading: true},
	{Name: "lint_code", Description: "Run a linter over source files", Category: CategoryCode,
		Keywords: []string{"lint", "vet", "staticcheck"}, TokenCost: 100, DeferLoading: true},
	{Name: "format_code", Description: "Format source files", Category: CategoryCode,
		Keywords: []string{"format", "gofmt"}, TokenCost: 80, DeferLoading: true},
	{Name: "run_tests", Description: "Run the test suite", Category: CategoryCode,
		Keywords: []string{"test", "coverage"}, TokenCost: 200, DeferLoading: true},

	{Name: "security_scan", Description: "Scan for security vulnerabilities (SAST)", Category: CategorySecurity,
		Keywords: []string{"security", "scan", "vulnerability", "sast"}, TokenCost: 200, DeferLoading: true},
	{Name: "dependency_audit", Description: "Audit dependencies for known vulnerabilities", Category: CategorySecurity,
		Keywords: []string{"audit", "dependency", "cve"}, TokenCost: 150, DeferLoading: true},
	{Name: "secret_scan", Description: "Scan for leaked credentials and API keys", Category: CategorySecurity,
		Keywords: []string{"secret", "credential", "password", "api_key"}, TokenCost: 120, DeferLoading: true},

	{Name: "http_request", Description: "Send an HTTP request", Category: CategoryNetwork,
		Keywords: []string{"http", "api", "request", "curl", "fetch"}, TokenCost: 100, DeferLoading: true},
	{Name: "api_test", Description: "Exercise an API endpoint with a test request", Category: CategoryAPI,
		Keywords: []string{"api", "test", "endpoint"}, TokenCost: 150, DeferLoading: true},

	{Name: "db_query", Description: "Execute a database query", Category: CategoryDatabase,
		Keywords: []string{"database", "sql", "query"}, TokenCost: 180, DeferLoading: true},
	{Name: "db_migrate", Description: "Apply a database migration", Category: CategoryDatabase,
		Keywords: []string{"migrate", "migration", "schema"}, TokenCost: 150, DeferLoading: true},
}

// NewDefaultRegistry returns a registry preloaded with DefaultDefinitions.
func NewDefaultRegistry() *Registry {
	r := New()
	r.RegisterMany(DefaultDefinitions)
	return r
}
