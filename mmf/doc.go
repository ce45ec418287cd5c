// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package mmf provides memory mapped regions over files and shared memory objects.
package mmf
