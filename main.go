// SPDX-License-Identifier: MIT

package main

import "github.com/esacteksab/gh-actaudit/cmd"

func main() {
	cmd.Execute()
}
