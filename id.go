// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "code.hybscloud.com/atomix"

// ID identifies a context or a scheduler. IDs are never reused within a
// process; zero is never assigned.
type ID = uint32

// ids is shared by contexts, schedulers and pipes.
var ids atomix.Uint32

func nextID() ID {
	return ids.Add(1)
}
