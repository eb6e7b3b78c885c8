// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/craftr/craftr/cmd/craftr"

func main() {
	cmd.Execute()
}
