/*Package interval implements the genomic-region primitive used on both sides
  of a discordant-read cluster, plus loaders for region lists given on the
  command line or in BED files.
  Regions use 0-based half-open coordinates and assume every position fits
  in a PosType, which is currently defined as int32 since that's what BAM
  files are limited to.
*/
package interval
