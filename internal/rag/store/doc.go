// Package store 提供知识库的数据存储层。
//
// 每个知识库由一对存储组成：向量索引（<name>_index.db）与文本块元数据库（<name>_text.db），
// 两者通过同一个整数编号关联，并且总是一起创建、一起删除。
// 另有一个与知识库无关的文件登记表（file_database.db）记录源文件与知识库的对应关系。
package store
