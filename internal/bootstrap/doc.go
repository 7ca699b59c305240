// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bootstrap handles jfacts project initialization and setup.
//
// A project is a directory of Java sources, optionally with Maven or Gradle
// build files. Initialization creates the .jfacts directory that holds the
// project configuration, the default output file and the last run summary.
//
// # Initialization Workflow
//
//	// Initialize the project (creates .jfacts and detects the build system)
//	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	    Root:      ".", // Optional: defaults to the working directory
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Detected %s project\n", info.Kind)
//
//	// Later, open the project to extract it
//	info, err = bootstrap.OpenProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	extractor.AttachProject(info.Tree)
//
// # Idempotency
//
// The InitProject function is idempotent: calling it multiple times on the
// same project is safe and leaves existing state untouched. This makes it
// suitable for use in scripts and automated workflows.
//
// # Configuration
//
// ProjectConfig controls the initialization behavior:
//
//   - ProjectID: Required. Logical identifier for the project.
//   - Root: Optional. The project directory. Defaults to the working directory.
//   - ConfigDir: Optional. Where jfacts keeps its state. Defaults to <Root>/.jfacts.
//
// # Module Discovery
//
// List the Maven modules or Gradle subprojects under a root:
//
//	modules, err := bootstrap.ListModules(root, logger)
//	for _, name := range modules {
//	    fmt.Println(name)
//	}
package bootstrap
