/*
Package d64 writes Commodore 1541 floppy disk images, commonly known by their
file extension ".D64".

An image is 683 sectors of 256 bytes each, spread across 35 tracks. Outer tracks
are longer and hold more sectors, so the disk is divided into four zones of
21, 19, 18, and 17 sectors per track. Track 18 (17 counting from zero, which is
what this package does everywhere except on disk) is reserved for the Block
Availability Map (BAM) in sector 0 and the directory starting in sector 1.

Files are stored as singly-linked chains of sectors. The first two bytes of each
sector give the 1-based track and sector of the next one. In the last sector of
a chain the track byte is 0 and the sector byte holds the number of payload
bytes used in that sector, 1-254.

Only a single directory sector (8 files), one file type (PRG), and the standard
35-track geometry are supported. Images are append-only: a [Disk] is either
formatted fresh or loaded from an existing image, and files are added to it one
at a time. A file is never deleted or changed after being written.

The layout follows "Inside Commodore DOS" by Immers and Neufeld, and the
descriptions at http://unusedino.de/ec64/technical/formats/d64.html.
*/
package d64
