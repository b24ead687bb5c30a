// Package layout 从 PDF 等来源提取出的原始逐页文本中恢复文档结构。
//
// 原始文本提取会丢失标题、表格、页码等语义，本包以行为单位做启发式分类，
// 将一页文本重建为带有 Markdown 风格标记的字符串：
//
//   - 标题行输出为 "\n# 标题\n"，层级 1-3 取决于编号样式
//   - 短小的表格单元输出为 "单元 |" 并以空行与正文隔开
//   - 空行之后的纯数字行视为页码，直接丢弃并收回之前的换行
//   - 其余正文行去除首尾空白后拼接
//
// 重建过程是纯函数，不依赖也不修改任何包级状态。
package layout
